package db

import "embed"

// EmbedMigrations holds the embedded SQL migration files.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
