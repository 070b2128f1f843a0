// Package migrations embeds the SQL schema files in this directory so test
// setup and any bootstrap tooling can apply them without shelling out to
// psql.
package migrations

import _ "embed"

//go:embed 0001_init.sql
var initSQL string

// InitSQL returns the full initial-schema statement, for test bootstrap
// against a throwaway database.
func InitSQL() string {
	return initSQL
}
