// Package migrations embeds the SQL migration files for the compound store.
package migrations

import "embed"

// FS contains the numbered .up.sql migration files.
//
//go:embed *.sql
var FS embed.FS
