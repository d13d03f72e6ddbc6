package sqlstore

// The two schemas must describe the same tables and columns. Only types and
// defaults differ.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		github_id     INTEGER UNIQUE,
		balance       INTEGER NOT NULL DEFAULT 0,
		is_admin      BOOLEAN NOT NULL DEFAULT 0,
		theme         TEXT NOT NULL DEFAULT 'dark',
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		amount      INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS queries (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(id),
		city            TEXT NOT NULL,
		category        TEXT NOT NULL,
		country         TEXT NOT NULL,
		requested_limit INTEGER NOT NULL,
		result_count    INTEGER NOT NULL,
		created_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queries_user ON queries(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS businesses (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		name         TEXT NOT NULL,
		city         TEXT NOT NULL DEFAULT '',
		district     TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT '',
		address      TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		website      TEXT NOT NULL DEFAULT '',
		stage        TEXT NOT NULL DEFAULT 'New',
		rating       REAL,
		rating_count INTEGER,
		price_level  INTEGER,
		status       TEXT NOT NULL DEFAULT '',
		intl_phone   TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		primary_type TEXT NOT NULL DEFAULT '',
		types        TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		UNIQUE (user_id, name, address)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_user ON businesses(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          TEXT PRIMARY KEY,
		business_id TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		type        TEXT NOT NULL,
		outcome     TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_business ON activities(business_id)`,
	`CREATE TABLE IF NOT EXISTS ingest_tasks (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		category     TEXT NOT NULL DEFAULT '',
		record_count INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		finished_at  DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_tasks_user ON ingest_tasks(user_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		github_id     BIGINT UNIQUE,
		balance       INTEGER NOT NULL DEFAULT 0,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		theme         TEXT NOT NULL DEFAULT 'dark',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		amount      INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS queries (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(id),
		city            TEXT NOT NULL,
		category        TEXT NOT NULL,
		country         TEXT NOT NULL,
		requested_limit INTEGER NOT NULL,
		result_count    INTEGER NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queries_user ON queries(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS businesses (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		name         TEXT NOT NULL,
		city         TEXT NOT NULL DEFAULT '',
		district     TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT '',
		address      TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		website      TEXT NOT NULL DEFAULT '',
		stage        TEXT NOT NULL DEFAULT 'New',
		rating       DOUBLE PRECISION,
		rating_count INTEGER,
		price_level  INTEGER,
		status       TEXT NOT NULL DEFAULT '',
		intl_phone   TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		primary_type TEXT NOT NULL DEFAULT '',
		types        TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, name, address)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_user ON businesses(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          TEXT PRIMARY KEY,
		business_id TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		type        TEXT NOT NULL,
		outcome     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_business ON activities(business_id)`,
	`CREATE TABLE IF NOT EXISTS ingest_tasks (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		category     TEXT NOT NULL DEFAULT '',
		record_count INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL,
		error        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_tasks_user ON ingest_tasks(user_id)`,
}
