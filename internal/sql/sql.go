package sql

import "embed"

// Migrations holds migrations/postgres/*.sql and migrations/sqlite/*.sql.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/has_column_postgres.sql
var HasColumnPostgres string

//go:embed queries/has_column_sqlite.sql
var HasColumnSQLite string
