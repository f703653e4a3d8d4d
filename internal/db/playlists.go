package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new playlist.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *Playlist) error {
	query := `
		INSERT INTO playlists (id, name, owner_id, image, track_ids, followers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		playlist.ID,
		playlist.Name,
		playlist.OwnerID,
		playlist.Image,
		playlist.TrackIDs,
		playlist.Followers,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	playlist.CreatedAt = now
	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*Playlist, error) {
	query := `
		SELECT id, name, owner_id, image, track_ids, followers, created_at
		FROM playlists
		WHERE id = $1
	`
	var playlist Playlist
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&playlist.ID,
		&playlist.Name,
		&playlist.OwnerID,
		&playlist.Image,
		&playlist.TrackIDs,
		&playlist.Followers,
		&playlist.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}
	return &playlist, nil
}

// UpdateTracks replaces a playlist's track listing.
func (r *PlaylistRepository) UpdateTracks(ctx context.Context, id string, trackIDs []string) error {
	query := `
		UPDATE playlists
		SET track_ids = $2
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, trackIDs)
	if err != nil {
		return fmt.Errorf("updating playlist tracks: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
