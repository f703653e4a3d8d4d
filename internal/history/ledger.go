// Package history maintains the bounded recently-played ledger. Each entry
// owns the context snapshot it was played from; evicting an entry removes
// its context with it.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
)

// Listing defaults and cap for the recently-played page.
const (
	DefaultListLimit = 20
	MaxListLimit     = 50
)

// Store is the persistence surface the ledger needs.
type Store interface {
	Insert(ctx context.Context, entry *db.PlayHistory) error
	CountForUser(ctx context.Context, userID string) (int, error)
	OldestForUser(ctx context.Context, userID string) (*db.PlayHistory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]db.PlayHistory, error)
}

// Ledger records plays into a per-user ring of at most max entries.
type Ledger struct {
	store  Store
	max    int
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger creates a Ledger capped at max entries per user.
func NewLedger(store Store, max int, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, max: max, logger: logger, now: time.Now}
}

// RecordPlay appends a play of trackID under contextID, evicting the user's
// oldest entry first when the ledger is full. Eviction before insert keeps
// the ledger at its cap rather than one past it.
func (l *Ledger) RecordPlay(ctx context.Context, userID string, contextID uuid.UUID, trackID string) error {
	if err := l.evictIfFull(ctx, userID); err != nil {
		return err
	}

	entry := &db.PlayHistory{
		ID:        uuid.New(),
		UserID:    userID,
		ContextID: contextID,
		TrackID:   trackID,
		PlayedAt:  l.now().UTC(),
	}
	if err := l.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("recording play for %s: %w", userID, err)
	}
	return nil
}

func (l *Ledger) evictIfFull(ctx context.Context, userID string) error {
	count, err := l.store.CountForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting ledger for %s: %w", userID, err)
	}
	if count < l.max {
		return nil
	}

	oldest, err := l.store.OldestForUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding oldest entry for %s: %w", userID, err)
	}

	if err := l.store.Delete(ctx, oldest.ID); err != nil {
		return fmt.Errorf("evicting entry for %s: %w", userID, err)
	}
	l.logger.Debug("ledger entry evicted",
		zap.String("user", userID),
		zap.String("entry", oldest.ID.String()))
	return nil
}

// Recent returns a page of the user's ledger, newest first. A non-positive
// limit falls back to the default and limits above the cap are clamped.
func (l *Ledger) Recent(ctx context.Context, userID string, limit, offset int) ([]db.PlayHistory, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := l.store.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing ledger for %s: %w", userID, err)
	}
	return entries, nil
}
