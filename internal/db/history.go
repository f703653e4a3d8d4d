package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository handles play-history entries and the context snapshots
// they own.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// CreateContext inserts a context snapshot.
func (r *HistoryRepository) CreateContext(ctx context.Context, pc *PlayContext) error {
	query := `
		INSERT INTO play_contexts (id, type, reference_id, display_name, images, followers, current_track_href, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		pc.ID,
		pc.Type,
		pc.ReferenceID,
		pc.DisplayName,
		pc.Images,
		pc.Followers,
		pc.CurrentTrackHref,
		pc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting play context: %w", err)
	}
	return nil
}

// GetContext retrieves a context snapshot by ID.
func (r *HistoryRepository) GetContext(ctx context.Context, id uuid.UUID) (*PlayContext, error) {
	query := `
		SELECT id, type, reference_id, display_name, images, followers, current_track_href, created_at
		FROM play_contexts
		WHERE id = $1
	`
	var pc PlayContext
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&pc.ID,
		&pc.Type,
		&pc.ReferenceID,
		&pc.DisplayName,
		&pc.Images,
		&pc.Followers,
		&pc.CurrentTrackHref,
		&pc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying play context: %w", err)
	}
	return &pc, nil
}

// Insert appends a play-history entry.
func (r *HistoryRepository) Insert(ctx context.Context, entry *PlayHistory) error {
	query := `
		INSERT INTO play_history (id, user_id, context_id, track_id, played_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ContextID,
		entry.TrackID,
		entry.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting play entry: %w", err)
	}
	return nil
}

// CountForUser returns the number of ledger entries for a user.
func (r *HistoryRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM play_history WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting play entries: %w", err)
	}
	return count, nil
}

// OldestForUser returns the user's single oldest ledger entry.
func (r *HistoryRepository) OldestForUser(ctx context.Context, userID string) (*PlayHistory, error) {
	query := `
		SELECT id, user_id, context_id, track_id, played_at
		FROM play_history
		WHERE user_id = $1
		ORDER BY played_at ASC
		LIMIT 1
	`
	var entry PlayHistory
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ContextID,
		&entry.TrackID,
		&entry.PlayedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying oldest play entry: %w", err)
	}
	return &entry, nil
}

// Delete removes a ledger entry and the context snapshot it owns. Contexts
// are not shared across ledger entries, so the cascade is unconditional; a
// player still pointing at the context is reset to idle by the
// ON DELETE SET NULL constraint.
func (r *HistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var contextID uuid.UUID
	err = tx.QueryRow(ctx, `DELETE FROM play_history WHERE id = $1 RETURNING context_id`, id).Scan(&contextID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting play entry: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM play_contexts WHERE id = $1`, contextID); err != nil {
		return fmt.Errorf("deleting play context: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// ListForUser returns a page of the user's ledger, newest first.
func (r *HistoryRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]PlayHistory, error) {
	query := `
		SELECT id, user_id, context_id, track_id, played_at
		FROM play_history
		WHERE user_id = $1
		ORDER BY played_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying play history: %w", err)
	}
	defer rows.Close()

	var entries []PlayHistory
	for rows.Next() {
		var entry PlayHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ContextID,
			&entry.TrackID,
			&entry.PlayedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning play entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
