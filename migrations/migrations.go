// Package migrations embeds the SQL schema so deployed binaries are
// self-contained.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
