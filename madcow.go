// Package madcow holds assets shared by the madcow commands.
package madcow

import "embed"

// Migrations is the PostgreSQL schema, applied by storage.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS
