// Package db provides the embedded database schema and catalog seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedCookies is the starter menu as a JSON array.
//
//go:embed seed/cookies.json
var SeedCookies []byte
