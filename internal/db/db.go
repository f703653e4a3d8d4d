// Package db provides PostgreSQL persistence for the streaming backend.
// Engagement histories and play queues are stored as JSONB / array columns
// on their owning row, so every mutation is a whole-document
// read-modify-write, matching the weak-consistency model the services
// assume.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Sessions returns a SessionRepository.
func (db *DB) Sessions() *SessionRepository {
	return &SessionRepository{pool: db.pool}
}

// Tracks returns a TrackRepository.
func (db *DB) Tracks() *TrackRepository {
	return &TrackRepository{pool: db.pool}
}

// Albums returns an AlbumRepository.
func (db *DB) Albums() *AlbumRepository {
	return &AlbumRepository{pool: db.pool}
}

// Playlists returns a PlaylistRepository.
func (db *DB) Playlists() *PlaylistRepository {
	return &PlaylistRepository{pool: db.pool}
}

// Players returns a PlayerRepository.
func (db *DB) Players() *PlayerRepository {
	return &PlayerRepository{pool: db.pool}
}

// History returns a HistoryRepository.
func (db *DB) History() *HistoryRepository {
	return &HistoryRepository{pool: db.pool}
}

// FindEngageable loads the track or album named by ref.
func (db *DB) FindEngageable(ctx context.Context, ref EntityRef) (Engageable, error) {
	switch ref.Kind {
	case KindTrack:
		return db.Tracks().Get(ctx, ref.ID)
	case KindAlbum:
		return db.Albums().Get(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("unknown entity kind %q: %w", ref.Kind, ErrNotFound)
	}
}

// SaveEngagement persists an entity's listen and like histories back to its
// row. The rest of the row is untouched.
func (db *DB) SaveEngagement(ctx context.Context, entity Engageable) error {
	ref := entity.Ref()
	switch ref.Kind {
	case KindTrack:
		return db.Tracks().UpdateEngagement(ctx, ref.ID, entity.ListenHistory(), entity.LikeHistory())
	case KindAlbum:
		return db.Albums().UpdateEngagement(ctx, ref.ID, entity.ListenHistory(), entity.LikeHistory())
	default:
		return fmt.Errorf("unknown entity kind %q: %w", ref.Kind, ErrNotFound)
	}
}
