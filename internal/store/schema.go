package store

// schemaStatements is the full SQLite schema. Statements are idempotent so
// opening an existing DB re-applies them harmlessly.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id                 TEXT PRIMARY KEY,
		date               TEXT NOT NULL,
		year               INTEGER NOT NULL,
		month              INTEGER NOT NULL,
		day                INTEGER NOT NULL,
		country            TEXT NOT NULL,
		state              TEXT NOT NULL DEFAULT '',
		type               TEXT NOT NULL DEFAULT '',
		subtype            TEXT NOT NULL DEFAULT '',
		disorder_type      TEXT NOT NULL DEFAULT '',
		fatalities         INTEGER NOT NULL DEFAULT 0,
		civilian_targeting INTEGER NOT NULL DEFAULT 0,
		notes              TEXT NOT NULL DEFAULT '',
		lat                REAL,
		lon                REAL,
		actor1             TEXT NOT NULL DEFAULT '',
		inter1             TEXT NOT NULL DEFAULT '',
		actor2             TEXT NOT NULL DEFAULT '',
		inter2             TEXT NOT NULL DEFAULT '',
		severity           REAL NOT NULL DEFAULT 0,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_slice
		ON events(country, year, month)`,
	`CREATE INDEX IF NOT EXISTS idx_events_slice_type
		ON events(country, year, month, type)`,
	`CREATE TABLE IF NOT EXISTS bundles (
		run_id     TEXT PRIMARY KEY,
		country    TEXT NOT NULL,
		year       INTEGER NOT NULL,
		month      INTEGER NOT NULL,
		briefs     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bundles_slice
		ON bundles(country, year, month)`,
}
