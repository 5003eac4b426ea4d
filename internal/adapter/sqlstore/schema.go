package sqlstore

// schema runs one statement per Exec so it works on drivers that reject
// multi-statement strings. Timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS beaches (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		region       TEXT NOT NULL,
		latitude     DOUBLE PRECISION NOT NULL,
		longitude    DOUBLE PRECISION NOT NULL,
		amenities    TEXT NOT NULL DEFAULT '[]',
		open_season  TEXT NOT NULL DEFAULT '',
		safety_level TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		beach_id         TEXT NOT NULL,
		observed_at_ms   BIGINT NOT NULL,
		sea_surface_temp DOUBLE PRECISION NOT NULL,
		wave_height      DOUBLE PRECISION NOT NULL,
		wind_speed       DOUBLE PRECISION NOT NULL,
		tide_level       DOUBLE PRECISION NOT NULL DEFAULT 0,
		source           TEXT NOT NULL,
		reliability      INTEGER NOT NULL CHECK (reliability BETWEEN 0 AND 2),
		PRIMARY KEY (beach_id, observed_at_ms)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id           TEXT PRIMARY KEY,
		beach_id     TEXT NOT NULL,
		alert_type   TEXT NOT NULL,
		severity     TEXT NOT NULL,
		message      TEXT NOT NULL DEFAULT '',
		starts_at_ms BIGINT NOT NULL,
		ends_at_ms   BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_beach ON alerts (beach_id, starts_at_ms)`,
	`CREATE TABLE IF NOT EXISTS events (
		id           BIGINT PRIMARY KEY,
		beach_id     TEXT NOT NULL DEFAULT '',
		region       TEXT NOT NULL,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		starts_at_ms BIGINT NOT NULL,
		ends_at_ms   BIGINT,
		latitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
		tags         TEXT NOT NULL DEFAULT '[]',
		price        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_region ON events (region)`,
}
