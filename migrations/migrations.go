// Package migrations embeds the schema files for each supported database.
// Files are applied in filename order and must never change once released.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
