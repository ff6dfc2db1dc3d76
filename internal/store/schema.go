package store

import (
	"context"
	"database/sql"
)

const scenesSchema = `
CREATE TABLE IF NOT EXISTS scenes (
    name TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    capacity INTEGER NOT NULL,
    time REAL NOT NULL,
    saved_at INTEGER NOT NULL
);
`

const pointsSchema = `
CREATE TABLE IF NOT EXISTS points (
    scene TEXT NOT NULL REFERENCES scenes(name) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    z REAL NOT NULL,
    radius REAL NOT NULL,
    color BLOB,
    idea_id TEXT,
    label TEXT,
    PRIMARY KEY (scene, idx)
);
`

// EnsureSchema creates the scene tables if they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, stmt := range []string{scenesSchema, pointsSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
