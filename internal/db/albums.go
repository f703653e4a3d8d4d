package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlbumRepository handles album database operations.
type AlbumRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new album with empty engagement histories.
func (r *AlbumRepository) Create(ctx context.Context, album *Album) error {
	query := `
		INSERT INTO albums (id, name, artist_id, image, track_ids, listens_history, likes_history, created_at)
		VALUES ($1, $2, $3, $4, $5, '[]', '[]', $6)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		album.ID,
		album.Name,
		album.ArtistID,
		album.Image,
		album.TrackIDs,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting album: %w", err)
	}
	album.CreatedAt = now
	return nil
}

// Get retrieves an album by ID, including its track listing and engagement
// histories.
func (r *AlbumRepository) Get(ctx context.Context, id string) (*Album, error) {
	query := `
		SELECT id, name, artist_id, image, track_ids, listens_history, likes_history, created_at
		FROM albums
		WHERE id = $1
	`
	var album Album
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&album.ID,
		&album.Name,
		&album.ArtistID,
		&album.Image,
		&album.TrackIDs,
		&album.Listens,
		&album.Likes,
		&album.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying album: %w", err)
	}
	return &album, nil
}

// UpdateEngagement replaces an album's engagement histories.
func (r *AlbumRepository) UpdateEngagement(ctx context.Context, id string, listens []ListenEntry, likes []LikeEntry) error {
	query := `
		UPDATE albums
		SET listens_history = $2, likes_history = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, listens, likes)
	if err != nil {
		return fmt.Errorf("updating album engagement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
