package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS quota_history (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id           TEXT NOT NULL,
    recorded_at          INTEGER NOT NULL, -- unix nanoseconds
    remaining            INTEGER NOT NULL,
    quota_limit          INTEGER NOT NULL,
    used                 INTEGER NOT NULL,
    daily_remaining      INTEGER NOT NULL,
    daily_limit          INTEGER NOT NULL,
    reset_at             TEXT,
    level                TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quota_history_recorded ON quota_history(recorded_at);
CREATE INDEX IF NOT EXISTS idx_quota_history_session ON quota_history(session_id);
`
