// Package migrations embeds the SQL schema for each supported engine.
package migrations

import "embed"

// Files holds one schema file per engine, named after the DB_DRIVER value.
//
//go:embed *.sql
var Files embed.FS
