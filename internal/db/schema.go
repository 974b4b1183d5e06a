package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements is the idempotent bootstrap DDL. The unique constraints
// here are the sole concurrency-correctness mechanism for the ingestion
// upserts: device EUI, measurement dedup key, the natural key (with NULL
// frame counts folded to a sentinel so NULL equals NULL), and one detail row
// per measurement.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		dev_eui             TEXT PRIMARY KEY,
		device_name         TEXT NOT NULL DEFAULT '',
		device_profile_name TEXT NOT NULL DEFAULT '',
		tenant_name         TEXT NOT NULL DEFAULT '',
		application_name    TEXT NOT NULL DEFAULT '',
		description         TEXT NOT NULL DEFAULT '',
		address             TEXT NOT NULL DEFAULT '',
		location            POINT,
		class_enabled       TEXT NOT NULL DEFAULT 'CLASS_A',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		id               BIGSERIAL PRIMARY KEY,
		device_eui       TEXT NOT NULL REFERENCES devices (dev_eui),
		measurement_time TIMESTAMPTZ NOT NULL,
		fcnt             INTEGER,
		fport            INTEGER,
		dr               INTEGER,
		adr              BOOLEAN,
		confirmed        BOOLEAN,
		raw_data         TEXT NOT NULL DEFAULT '',
		deduplication_id TEXT UNIQUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_measurements_natural_key
		ON measurements (device_eui, measurement_time, COALESCE(fcnt, -1))
		WHERE deduplication_id IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_measurements_device_time
		ON measurements (device_eui, measurement_time)`,
	`CREATE TABLE IF NOT EXISTS sound_measurements (
		measurement_id BIGINT PRIMARY KEY REFERENCES measurements (id),
		laeq           DOUBLE PRECISION,
		lai            DOUBLE PRECISION,
		laimax         DOUBLE PRECISION,
		battery        DOUBLE PRECISION,
		status         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS air_quality_measurements (
		measurement_id BIGINT PRIMARY KEY REFERENCES measurements (id),
		co2            INTEGER,
		temperature    DOUBLE PRECISION,
		humidity       DOUBLE PRECISION,
		pressure       DOUBLE PRECISION,
		battery        DOUBLE PRECISION,
		status         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS distance_measurements (
		measurement_id BIGINT PRIMARY KEY REFERENCES measurements (id),
		distance       DOUBLE PRECISION,
		position       TEXT,
		battery        DOUBLE PRECISION,
		status         TEXT
	)`,
}

// EnsureSchema creates the ingestion tables and indexes if absent. This is a
// startup bootstrap, not migration tooling; altering existing columns is out
// of scope.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: ensure schema: %w", err)
		}
	}
	return nil
}
