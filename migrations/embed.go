// Package migrations ships the PostgreSQL schema as golang-migrate files.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
