// Package db embeds the SQL migrations, seed data and request schemas that
// ship with the server binary.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed seed/*.sql
var SeedFiles embed.FS

//go:embed schemas/*.json
var Schemas embed.FS
