package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackRepository handles track database operations.
type TrackRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new track with empty engagement histories.
func (r *TrackRepository) Create(ctx context.Context, track *Track) error {
	query := `
		INSERT INTO tracks (id, title, artist_id, album_id, duration_ms, listens_history, likes_history, created_at)
		VALUES ($1, $2, $3, $4, $5, '[]', '[]', $6)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		track.ID,
		track.Title,
		track.ArtistID,
		track.AlbumID,
		track.DurationMs,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting track: %w", err)
	}
	track.CreatedAt = now
	return nil
}

// Get retrieves a track by ID, including its engagement histories.
func (r *TrackRepository) Get(ctx context.Context, id string) (*Track, error) {
	query := `
		SELECT id, title, artist_id, album_id, duration_ms, listens_history, likes_history, created_at
		FROM tracks
		WHERE id = $1
	`
	var track Track
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&track.ID,
		&track.Title,
		&track.ArtistID,
		&track.AlbumID,
		&track.DurationMs,
		&track.Listens,
		&track.Likes,
		&track.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return &track, nil
}

// IDsForArtist retrieves the ordered track ids owned by an artist.
func (r *TrackRepository) IDsForArtist(ctx context.Context, artistID string) ([]string, error) {
	query := `
		SELECT id
		FROM tracks
		WHERE artist_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("querying artist tracks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning track id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateEngagement replaces a track's engagement histories. The read that
// produced the new histories and this write are not atomic; concurrent
// writers race with last-writer-wins semantics.
func (r *TrackRepository) UpdateEngagement(ctx context.Context, id string, listens []ListenEntry, likes []LikeEntry) error {
	query := `
		UPDATE tracks
		SET listens_history = $2, likes_history = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, listens, likes)
	if err != nil {
		return fmt.Errorf("updating track engagement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
