package migrations

import "embed"

// Files holds the schema migrations compiled into the binary. Migrations are
// flat files named NNN_description.sql and applied in lexical order by the
// store's migration runner.
//
//go:embed *.sql
var Files embed.FS
