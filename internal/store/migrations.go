package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	id               INTEGER PRIMARY KEY CHECK(id = 1),
	tone             TEXT NOT NULL DEFAULT 'professional',
	reply_length     INTEGER NOT NULL DEFAULT 50 CHECK(reply_length BETWEEN 0 AND 100),
	auto_generate    INTEGER NOT NULL DEFAULT 1 CHECK(auto_generate IN (0, 1)),
	detect_distress  INTEGER NOT NULL DEFAULT 1 CHECK(detect_distress IN (0, 1)),
	highlight_urgent INTEGER NOT NULL DEFAULT 1 CHECK(highlight_urgent IN (0, 1)),
	wellbeing_alerts INTEGER NOT NULL DEFAULT 1 CHECK(wellbeing_alerts IN (0, 1)),
	late_policy      TEXT NOT NULL DEFAULT '',
	extension_policy TEXT NOT NULL DEFAULT '',
	honor_policy     TEXT NOT NULL DEFAULT '',
	grade_policy     TEXT NOT NULL DEFAULT '',
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS digests (
	id          TEXT PRIMARY KEY,
	digest_date TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_digests_created ON digests(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS conversation (
	id         TEXT PRIMARY KEY,
	role       TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conversation_created ON conversation(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
ALTER TABLE preferences ADD COLUMN signature TEXT NOT NULL DEFAULT '';

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
