package player

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
)

// Decision is the playback gate's verdict on a play attempt.
type Decision int

const (
	// Allowed means the track may play; the queue has advanced past it.
	Allowed Decision = 1

	// MustPlayAdFirst means a free-tier user owes an ad before this track;
	// the queue position is unchanged and the ad has been counted.
	MustPlayAdFirst Decision = -1

	// TrackMismatch means the requested track is not the one in the
	// current queue slot; nothing changed.
	TrackMismatch Decision = -2
)

// String names the decision for logs.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case MustPlayAdFirst:
		return "must-play-ad-first"
	case TrackMismatch:
		return "track-mismatch"
	default:
		return "unknown"
	}
}

// ValidateTrack gates a play attempt for trackID. The ad check runs before
// the mismatch check: a free-tier user who owes an ad is told so regardless
// of which track they asked for. On Allowed the queue advances one slot,
// wrapping at the end; the caller streams the track it asked about.
func (s *Service) ValidateTrack(ctx context.Context, userID string, role db.Role, trackID string) (Decision, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.players.GetByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading player for %s: %w", userID, err)
	}
	if state.ContextID == nil {
		return 0, ErrNoContext
	}
	if len(state.Queue) == 0 {
		return 0, ErrEmptyQueue
	}

	if role == db.RoleUser && s.adsInterval > 0 && state.Offset/s.adsInterval > state.AdsPlayed {
		state.AdsPlayed++
		if err := s.players.Save(ctx, state); err != nil {
			return 0, fmt.Errorf("saving player for %s: %w", userID, err)
		}
		s.logger.Debug("ad required",
			zap.String("user", userID),
			zap.Int("offset", state.Offset),
			zap.Int("ads_played", state.AdsPlayed))
		return MustPlayAdFirst, nil
	}

	if state.Queue[state.Offset] != trackID {
		return TrackMismatch, nil
	}

	state.Offset = (state.Offset + 1) % len(state.Queue)
	if err := s.players.Save(ctx, state); err != nil {
		return 0, fmt.Errorf("saving player for %s: %w", userID, err)
	}
	return Allowed, nil
}
