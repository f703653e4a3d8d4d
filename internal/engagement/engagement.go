// Package engagement records listen and like events against tracks and
// albums. Recording is read-modify-write over the whole history with
// last-writer-wins semantics: good enough for engagement counters, not for
// anything financial-grade.
package engagement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
	"github.com/justestif/go-stream-player/internal/timebucket"
)

// Store loads and persists engagement-bearing entities.
type Store interface {
	FindEngageable(ctx context.Context, ref db.EntityRef) (db.Engageable, error)
	SaveEngagement(ctx context.Context, entity db.Engageable) error
}

// Recorder applies listen and like events to an entity's histories.
type Recorder struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// RecordListen merges today's listen into the entity's history: the last
// entry is incremented when it already covers today's UTC day, otherwise a
// fresh {today, 1} entry is appended.
func (r *Recorder) RecordListen(ctx context.Context, ref db.EntityRef) error {
	entity, err := r.store.FindEngageable(ctx, ref)
	if err != nil {
		return fmt.Errorf("loading %s %s: %w", ref.Kind, ref.ID, err)
	}

	today := timebucket.Day(r.now())
	entity.ReplaceListenHistory(AppendListen(entity.ListenHistory(), today))

	if err := r.store.SaveEngagement(ctx, entity); err != nil {
		return fmt.Errorf("saving listen for %s %s: %w", ref.Kind, ref.ID, err)
	}

	r.logger.Debug("listen recorded",
		zap.String("kind", string(ref.Kind)),
		zap.String("id", ref.ID))
	return nil
}

// RecordLike appends a like for actorID unless the actor already liked the
// entity; repeat likes are a no-op.
func (r *Recorder) RecordLike(ctx context.Context, ref db.EntityRef, actorID string) error {
	entity, err := r.store.FindEngageable(ctx, ref)
	if err != nil {
		return fmt.Errorf("loading %s %s: %w", ref.Kind, ref.ID, err)
	}

	likes, added := AppendLike(entity.LikeHistory(), timebucket.Day(r.now()), actorID)
	if !added {
		return nil
	}
	entity.ReplaceLikeHistory(likes)

	if err := r.store.SaveEngagement(ctx, entity); err != nil {
		return fmt.Errorf("saving like for %s %s: %w", ref.Kind, ref.ID, err)
	}

	r.logger.Debug("like recorded",
		zap.String("kind", string(ref.Kind)),
		zap.String("id", ref.ID),
		zap.String("actor", actorID))
	return nil
}

// AppendListen merges a listen on day into history. History is appended in
// non-decreasing day order with at most one entry per day, so only the last
// entry needs checking.
func AppendListen(history []db.ListenEntry, day time.Time) []db.ListenEntry {
	if n := len(history); n > 0 && history[n-1].Day.Equal(day) {
		history[n-1].Count++
		return history
	}
	return append(history, db.ListenEntry{Day: day, Count: 1})
}

// AppendLike appends a like entry for actorID dated day. The second return
// is false when the actor already appears and the history is unchanged.
func AppendLike(history []db.LikeEntry, day time.Time, actorID string) ([]db.LikeEntry, bool) {
	for _, entry := range history {
		if entry.UserID == actorID {
			return history, false
		}
	}
	return append(history, db.LikeEntry{Day: day, UserID: actorID}), true
}
