// Package migrations embeds the SQL migration files so the server can apply
// them at startup with goose, and integration tests can do the same.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
