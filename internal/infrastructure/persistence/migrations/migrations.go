// Package migrations embeds the SQL schema so the migrate binary and the
// integration tests apply exactly the same files.
package migrations

import "embed"

// FS holds the golang-migrate files (NNNNNN_name.up.sql / .down.sql).
//
//go:embed *.sql
var FS embed.FS
