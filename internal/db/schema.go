package db

import (
	"context"
	"fmt"
)

// schema is applied at startup. Statements are idempotent so repeated boots
// are safe; anything more elaborate than additive DDL belongs in a real
// migration tool.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email        TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT 'user',
		image        TEXT,
		followers    INT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		artist_id       TEXT NOT NULL REFERENCES users(id),
		album_id        TEXT,
		duration_ms     INT,
		listens_history JSONB NOT NULL DEFAULT '[]',
		likes_history   JSONB NOT NULL DEFAULT '[]',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tracks_artist_idx ON tracks (artist_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS albums (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		artist_id       TEXT NOT NULL REFERENCES users(id),
		image           TEXT,
		track_ids       TEXT[] NOT NULL DEFAULT '{}',
		listens_history JSONB NOT NULL DEFAULT '[]',
		likes_history   JSONB NOT NULL DEFAULT '[]',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		image      TEXT,
		track_ids  TEXT[] NOT NULL DEFAULT '{}',
		followers  INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS play_contexts (
		id                 UUID PRIMARY KEY,
		type               TEXT NOT NULL,
		reference_id       TEXT NOT NULL,
		display_name       TEXT NOT NULL,
		images             TEXT[] NOT NULL DEFAULT '{}',
		followers          INT NOT NULL DEFAULT 0,
		current_track_href TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		user_id    TEXT PRIMARY KEY REFERENCES users(id),
		context_id UUID REFERENCES play_contexts(id) ON DELETE SET NULL,
		queue      TEXT[] NOT NULL DEFAULT '{}',
		offset_pos INT NOT NULL DEFAULT 0,
		ads_played INT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS play_history (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		context_id UUID NOT NULL REFERENCES play_contexts(id),
		track_id   TEXT NOT NULL,
		played_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS play_history_user_idx ON play_history (user_id, played_at)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id),
		access_token  TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_expiry  TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		expires_at    TIMESTAMPTZ NOT NULL
	)`,
}

// Bootstrap creates any missing tables and indexes.
func (db *DB) Bootstrap(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := db.pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
