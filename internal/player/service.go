// Package player implements the per-user playback engine: context starts,
// queue shuffling, queue advancement, and the free-tier playback gate.
package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
)

// Common errors.
var (
	// ErrNoContext is returned when an operation needs an active playback
	// context and the player is idle.
	ErrNoContext = errors.New("no active playback context")

	// ErrEmptyQueue is returned when an operation needs a non-empty queue.
	ErrEmptyQueue = errors.New("playback queue is empty")

	// ErrUnknownContextType is returned for a context type other than
	// album, artist, or playlist.
	ErrUnknownContextType = errors.New("unknown context type")
)

// PlayerStore loads and persists per-user player documents.
type PlayerStore interface {
	GetByUser(ctx context.Context, userID string) (*db.PlayerState, error)
	Save(ctx context.Context, state *db.PlayerState) error
}

// ContextStore persists playback-context snapshots.
type ContextStore interface {
	CreateContext(ctx context.Context, pc *db.PlayContext) error
	GetContext(ctx context.Context, id uuid.UUID) (*db.PlayContext, error)
}

// QueueSnapshot is what playback operations hand back to the transport
// layer: the context being played and the queue position after the
// operation.
type QueueSnapshot struct {
	Context *db.PlayContext `json:"context"`
	Queue   []string        `json:"queue"`
	Offset  int             `json:"offset"`
}

// Service drives playback for all users. Mutations on a single user's
// player are serialized through a per-user lock, so concurrent requests
// cannot interleave their read-modify-write cycles.
type Service struct {
	players     PlayerStore
	contexts    ContextStore
	catalog     Catalog
	adsInterval int
	logger      *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	locks *userLocks
}

// NewService creates a playback Service. adsInterval is the number of tracks
// a free-tier user may play between forced ads; zero disables the gate.
func NewService(players PlayerStore, contexts ContextStore, catalog Catalog, adsInterval int, logger *zap.Logger) *Service {
	return &Service{
		players:     players,
		contexts:    contexts,
		catalog:     catalog,
		adsInterval: adsInterval,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		locks:       newUserLocks(),
	}
}

// StartContext begins playback of a collection: the collection's tracks are
// shuffled into a fresh queue, a new context snapshot is persisted, and the
// player is reset to the queue's head with its ad counter cleared.
func (s *Service) StartContext(ctx context.Context, userID string, contextType db.ContextType, referenceID string) (*QueueSnapshot, error) {
	seed, err := s.resolve(ctx, contextType, referenceID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.players.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading player for %s: %w", userID, err)
	}

	queue := make([]string, len(seed.TrackIDs))
	copy(queue, seed.TrackIDs)
	s.shuffle(queue)

	playContext := &db.PlayContext{
		ID:          uuid.New(),
		Type:        contextType,
		ReferenceID: referenceID,
		DisplayName: seed.DisplayName,
		Images:      seed.Images,
		Followers:   seed.Followers,
		CreatedAt:   time.Now().UTC(),
	}
	if len(queue) > 0 {
		playContext.CurrentTrackHref = trackHref(queue[0])
	}
	if err := s.contexts.CreateContext(ctx, playContext); err != nil {
		return nil, fmt.Errorf("creating context: %w", err)
	}

	state.ContextID = &playContext.ID
	state.Queue = queue
	state.Offset = 0
	state.AdsPlayed = 0
	if err := s.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("saving player for %s: %w", userID, err)
	}

	s.logger.Info("context started",
		zap.String("user", userID),
		zap.String("type", string(contextType)),
		zap.String("reference", referenceID),
		zap.Int("queue_len", len(queue)))

	return &QueueSnapshot{Context: playContext, Queue: state.Queue, Offset: state.Offset}, nil
}

// Shuffle re-randomizes the active queue and rewinds to its head.
func (s *Service) Shuffle(ctx context.Context, userID string) (*QueueSnapshot, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.players.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading player for %s: %w", userID, err)
	}
	if state.ContextID == nil {
		return nil, ErrNoContext
	}
	if len(state.Queue) == 0 {
		return nil, ErrEmptyQueue
	}

	s.shuffle(state.Queue)
	state.Offset = 0
	if err := s.players.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("saving player for %s: %w", userID, err)
	}

	return s.snapshot(ctx, state)
}

// Advance moves the queue to the next slot, wrapping to the head past the
// last track, and returns the track now in the current slot.
func (s *Service) Advance(ctx context.Context, userID string) (string, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.players.GetByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading player for %s: %w", userID, err)
	}
	if state.ContextID == nil {
		return "", ErrNoContext
	}
	if len(state.Queue) == 0 {
		return "", ErrEmptyQueue
	}

	state.Offset = (state.Offset + 1) % len(state.Queue)
	if err := s.players.Save(ctx, state); err != nil {
		return "", fmt.Errorf("saving player for %s: %w", userID, err)
	}

	return state.Queue[state.Offset], nil
}

// State returns the user's current queue position without mutating it.
func (s *Service) State(ctx context.Context, userID string) (*QueueSnapshot, error) {
	state, err := s.players.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading player for %s: %w", userID, err)
	}
	return s.snapshot(ctx, state)
}

func (s *Service) snapshot(ctx context.Context, state *db.PlayerState) (*QueueSnapshot, error) {
	snap := &QueueSnapshot{Queue: state.Queue, Offset: state.Offset}
	if state.ContextID != nil {
		playContext, err := s.contexts.GetContext(ctx, *state.ContextID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("loading context: %w", err)
		}
		snap.Context = playContext
	}
	return snap, nil
}

func (s *Service) resolve(ctx context.Context, contextType db.ContextType, referenceID string) (*ContextSeed, error) {
	switch contextType {
	case db.ContextPlaylist:
		return s.catalog.ResolvePlaylist(ctx, referenceID)
	case db.ContextAlbum:
		return s.catalog.ResolveAlbum(ctx, referenceID)
	case db.ContextArtist:
		return s.catalog.ResolveArtist(ctx, referenceID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContextType, contextType)
	}
}

// shuffle applies a Fisher-Yates pass over queue in place.
func (s *Service) shuffle(queue []string) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := len(queue) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}
}

func trackHref(trackID string) string {
	return "/v1/tracks/" + trackID
}

// userLocks hands out one mutex per user id.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the user's mutex and returns its unlock function.
func (u *userLocks) lock(userID string) func() {
	u.mu.Lock()
	lock, ok := u.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		u.locks[userID] = lock
	}
	u.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
