// Package migrations embeds the CLI state database schema (goose, sqlite3 dialect).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
