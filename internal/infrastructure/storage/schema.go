package storage

// schema is portable between SQLite and Postgres: timestamps are unix
// milliseconds and niches/metrics are JSON text.
const schema = `
CREATE TABLE IF NOT EXISTS topics (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	source         TEXT NOT NULL,
	niches         TEXT NOT NULL DEFAULT '[]',
	content_type   TEXT NOT NULL,
	score          INTEGER NOT NULL DEFAULT 0,
	relevance      INTEGER NOT NULL DEFAULT 0,
	engagement     INTEGER NOT NULL DEFAULT 0,
	freshness      INTEGER NOT NULL DEFAULT 0,
	virality       INTEGER NOT NULL DEFAULT 0,
	age_hours      DOUBLE PRECISION NOT NULL DEFAULT 0,
	velocity       TEXT NOT NULL DEFAULT '',
	hook           TEXT NOT NULL DEFAULT '',
	post_idea      TEXT NOT NULL DEFAULT '',
	source_url     TEXT NOT NULL DEFAULT '',
	source_title   TEXT NOT NULL DEFAULT '',
	discussion_url TEXT NOT NULL DEFAULT '',
	metrics        TEXT NOT NULL DEFAULT '{}',
	fact_checked   BOOLEAN NOT NULL DEFAULT FALSE,
	fact_notes     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'new',
	draft          TEXT NOT NULL DEFAULT '',
	created_at     BIGINT NOT NULL,
	updated_at     BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topics_score ON topics(score DESC);
CREATE INDEX IF NOT EXISTS idx_topics_status ON topics(status);
CREATE INDEX IF NOT EXISTS idx_topics_source ON topics(source);

CREATE TABLE IF NOT EXISTS scan_log (
	id          TEXT PRIMARY KEY,
	cycle_id    TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	items_found INTEGER NOT NULL DEFAULT 0,
	items_new   INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	scanned_at  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_log_scanned_at ON scan_log(scanned_at DESC);
`
