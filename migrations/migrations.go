// Package migrations embeds the SQL schema of the Postgres storage backend.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
