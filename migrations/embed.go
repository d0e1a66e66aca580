// Package migrations embeds the SQL schema so the server and the migrate
// command can apply it without shipping the files.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
