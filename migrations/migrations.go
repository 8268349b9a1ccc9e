// Package migrations embeds the PostgreSQL schema for the product catalogue.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
