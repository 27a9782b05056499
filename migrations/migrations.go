// Package migrations embeds the goose SQL migrations for the meta database
// (tenant registry) and for tenant databases (catalog, movements, reports).
package migrations

import "embed"

//go:embed meta/*.sql
var Meta embed.FS

//go:embed tenant/*.sql
var Tenant embed.FS
