package storage

import _ "embed"

// Schema is the DDL in schema.sql, embedded so cmd/hypervisor-migrate can
// apply it without shipping the .sql file alongside the binary.
//
//go:embed schema.sql
var Schema string
