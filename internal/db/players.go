package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerRepository handles the per-user player document.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// GetByUser retrieves a user's player. A user who has never started playback
// gets a fresh idle document (no row is written until Save).
func (r *PlayerRepository) GetByUser(ctx context.Context, userID string) (*PlayerState, error) {
	query := `
		SELECT user_id, context_id, queue, offset_pos, ads_played, updated_at
		FROM players
		WHERE user_id = $1
	`
	var state PlayerState
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&state.UserID,
		&state.ContextID,
		&state.Queue,
		&state.Offset,
		&state.AdsPlayed,
		&state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &PlayerState{UserID: userID, Queue: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return &state, nil
}

// Save upserts the whole player document.
func (r *PlayerRepository) Save(ctx context.Context, state *PlayerState) error {
	query := `
		INSERT INTO players (user_id, context_id, queue, offset_pos, ads_played, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			context_id = EXCLUDED.context_id,
			queue = EXCLUDED.queue,
			offset_pos = EXCLUDED.offset_pos,
			ads_played = EXCLUDED.ads_played,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		state.UserID,
		state.ContextID,
		state.Queue,
		state.Offset,
		state.AdsPlayed,
		now,
	)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	state.UpdatedAt = now
	return nil
}
