package service

import "sync"

// keyedMutex serializes work per request ID. The workflow engine itself is
// stateless; the read-process-persist cycle must not interleave for the same
// request, and that discipline lives here.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*requestLock
}

type requestLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*requestLock)}
}

// Lock acquires the mutex for the key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &requestLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
