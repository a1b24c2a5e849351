package workflow

import (
	"testing"
	"time"
)

func TestContext_MergePromotesKnownKeys(t *testing.T) {
	base := Context{
		RequestID:   "r1",
		RequesterID: "u1",
		Priority:    PriorityNormal,
		Metadata:    map[string]interface{}{MetaTotalAmount: 42.0},
	}

	merged := base.Merge(map[string]interface{}{
		KeyAssignedTo: "u2",
		KeyApprovedBy: "mgr",
		KeyPriority:   "HIGH",
		"note":        "rush job",
	})

	if merged.AssignedTo != "u2" {
		t.Errorf("AssignedTo = %q, want u2", merged.AssignedTo)
	}
	if merged.ApprovedBy != "mgr" {
		t.Errorf("ApprovedBy = %q, want mgr", merged.ApprovedBy)
	}
	if merged.Priority != PriorityHigh {
		t.Errorf("Priority = %v, want HIGH", merged.Priority)
	}
	if merged.Metadata["note"] != "rush job" {
		t.Error("plain keys should land in metadata")
	}
	if merged.Metadata[MetaTotalAmount] != 42.0 {
		t.Error("existing metadata lost on merge")
	}

	// The original context must be untouched.
	if base.AssignedTo != "" || len(base.Metadata) != 1 {
		t.Error("Merge mutated the receiver")
	}
}

func TestContext_MergeInvalidPriorityStaysInMetadata(t *testing.T) {
	base := Context{Priority: PriorityNormal}
	merged := base.Merge(map[string]interface{}{KeyPriority: "LUDICROUS"})

	if merged.Priority != PriorityNormal {
		t.Errorf("Priority = %v, want unchanged NORMAL", merged.Priority)
	}
	if merged.Metadata[KeyPriority] != "LUDICROUS" {
		t.Error("invalid priority should fall through to metadata")
	}
}

func TestContext_MetaFloat(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
		ok    bool
	}{
		{"float64", 12.5, 12.5, true},
		{"int", 12, 12, true},
		{"int64", int64(7), 7, true},
		{"string", "12.5", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Context{Metadata: map[string]interface{}{}}
			if tt.value != nil {
				c.Metadata["k"] = tt.value
			}
			got, ok := c.MetaFloat("k")
			if got != tt.want || ok != tt.ok {
				t.Errorf("MetaFloat() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestContext_MetaTime(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	c := Context{Metadata: map[string]interface{}{
		"native": at,
		"string": at.Format(time.RFC3339),
		"bogus":  "not a timestamp",
	}}

	if got, ok := c.MetaTime("native"); !ok || !got.Equal(at) {
		t.Errorf("MetaTime(native) = (%v, %v)", got, ok)
	}
	if got, ok := c.MetaTime("string"); !ok || !got.Equal(at) {
		t.Errorf("MetaTime(string) = (%v, %v)", got, ok)
	}
	if _, ok := c.MetaTime("bogus"); ok {
		t.Error("MetaTime should reject unparseable strings")
	}
	if _, ok := c.MetaTime("missing"); ok {
		t.Error("MetaTime should report missing keys")
	}
}
