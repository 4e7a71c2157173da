package db

import (
	"fmt"
	"strings"
)

// autoIDToken stands in for an auto-increment integer primary key, which
// SQLite and Postgres spell differently.
const autoIDToken = "{{auto_id}}"

// migrations is an ordered list of SQL statements to run.
// Statements are written to run unchanged on SQLite and Postgres, apart from
// autoIDToken which is expanded per dialect.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS bsa_feature (
		id_feature TEXT    PRIMARY KEY,
		nama       TEXT    NOT NULL,
		is_active  INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS bsa_featuredetail (
		id_featuredetail TEXT    PRIMARY KEY,
		id_feature       TEXT    NOT NULL REFERENCES bsa_feature(id_feature),
		nama             TEXT    NOT NULL,
		urutan           INTEGER NOT NULL DEFAULT 0,
		is_active        INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS bsa_featuresubdetail (
		id_featuresubdetail TEXT    PRIMARY KEY,
		id_featuredetail    TEXT    NOT NULL REFERENCES bsa_featuredetail(id_featuredetail),
		nama                TEXT    NOT NULL,
		urutan              INTEGER NOT NULL DEFAULT 0,
		is_active           INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS sfa_pelanggan (
		id         TEXT PRIMARY KEY,
		nama       TEXT NOT NULL DEFAULT '',
		latitude   REAL,
		longitude  REAL,
		updated_by TEXT,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sfa_users (
		username      TEXT      PRIMARY KEY,
		password_hash TEXT      NOT NULL,
		idspv         TEXT      NOT NULL,
		flagsales     INTEGER   NOT NULL DEFAULT 0,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sfa_visit (
		id_visit    TEXT      PRIMARY KEY,
		tanggal     DATE      NOT NULL,
		idspv       TEXT      NOT NULL,
		idpelanggan TEXT      NOT NULL,
		latitude    REAL,
		longitude   REAL,
		mulai       TIMESTAMP NOT NULL,
		selesai     TIMESTAMP NOT NULL,
		catatan     TEXT,
		idsales     TEXT      NOT NULL,
		nocall      TEXT      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sfa_visitdet (
		id_visit            TEXT    NOT NULL REFERENCES sfa_visit(id_visit),
		id_feature          TEXT,
		id_featuredetail    TEXT    NOT NULL,
		id_featuresubdetail TEXT    NOT NULL,
		checklist           INTEGER NOT NULL CHECK (checklist IN (0, 1))
	)`,
	`CREATE TABLE IF NOT EXISTS apk_versions (
		id              {{auto_id}},
		version_name    TEXT      NOT NULL,
		version_code    INTEGER   NOT NULL,
		download_url    TEXT      NOT NULL,
		release_notes   TEXT,
		is_force_update INTEGER   NOT NULL DEFAULT 0,
		created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sfa_visitdet_visit ON sfa_visitdet (id_visit)`,
	`CREATE INDEX IF NOT EXISTS idx_bsa_featuredetail_feature ON bsa_featuredetail (id_feature)`,
	`CREATE INDEX IF NOT EXISTS idx_bsa_featuresubdetail_detail ON bsa_featuresubdetail (id_featuredetail)`,
	`CREATE INDEX IF NOT EXISTS idx_apk_versions_code ON apk_versions (version_code)`,
}

// migrate runs all migrations in order.
func migrate(d *DB) error {
	for i, m := range migrations {
		m = strings.ReplaceAll(m, autoIDToken, d.Dialect.AutoIDColumn())
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Migrate re-runs the migration list against an open database.
// Every statement is idempotent, so this is safe on an up-to-date schema.
func Migrate(d *DB) error {
	return migrate(d)
}
