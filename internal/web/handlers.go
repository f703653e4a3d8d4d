package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/db"
	"github.com/justestif/go-stream-player/internal/engagement"
	"github.com/justestif/go-stream-player/internal/history"
	"github.com/justestif/go-stream-player/internal/identity"
	"github.com/justestif/go-stream-player/internal/player"
	"github.com/justestif/go-stream-player/internal/stats"
	"github.com/justestif/go-stream-player/internal/timebucket"
)

// Route kinds for the engagement and stats endpoints.
const (
	trackKind = db.KindTrack
	albumKind = db.KindAlbum
)

// UserStore is the account surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	Get(ctx context.Context, id string) (*db.User, error)
}

// contextKey is a private type for request-context values.
type contextKey int

const identityKey contextKey = iota

// Handlers contains the HTTP handlers for the streaming API.
type Handlers struct {
	resolver identity.Resolver
	issuer   identity.Issuer
	users    UserStore
	player   *player.Service
	ledger   *history.Ledger
	recorder *engagement.Recorder
	stats    *stats.Service
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg ServerConfig) *Handlers {
	return &Handlers{
		resolver: cfg.Resolver,
		issuer:   cfg.Issuer,
		users:    cfg.Users,
		player:   cfg.Player,
		ledger:   cfg.Ledger,
		recorder: cfg.Recorder,
		stats:    cfg.Stats,
		logger:   cfg.Logger,
	}
}

// Authenticate resolves the bearer credential and stores the caller's
// identity in the request context.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerToken(r)
		if !ok {
			respondError(w, h.logger, identity.ErrUnauthenticated)
			return
		}

		id, err := h.resolver.Resolve(r.Context(), credential)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// caller returns the authenticated identity stored by Authenticate.
func caller(r *http.Request) *identity.Identity {
	id, _ := r.Context().Value(identityKey).(*identity.Identity)
	return id
}

type createUserRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type userResponse struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Image       *string `json:"image,omitempty"`
	Followers   int     `json:"followers"`
}

type createUserResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// CreateUser handles signup (POST /v1/users) and returns the new account
// with a freshly issued session credential.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.DisplayName == "" || req.Email == "" {
		respondError(w, h.logger, badRequestf("displayName and email are required"))
		return
	}

	role := db.RoleUser
	if req.Role != "" {
		role = db.Role(req.Role)
		if !role.Valid() {
			respondError(w, h.logger, badRequestf("unknown role %q", req.Role))
			return
		}
	}

	user := &db.User{
		ID:          uuid.NewString(),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        role,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		respondError(w, h.logger, err)
		return
	}

	token, err := h.issuer.Issue(r.Context(), user.ID, nil)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, createUserResponse{
		User: userResponse{
			ID:          user.ID,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			Role:        string(user.Role),
			Image:       user.Image,
			Followers:   user.Followers,
		},
		Token: token,
	})
}

// PlayerState returns the caller's current queue (GET /v1/me/player).
func (h *Handlers) PlayerState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.player.State(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type startContextRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// StartContext begins playback of a collection (PUT /v1/me/player/context).
// The queue head is recorded into the recently-played ledger, and its listen
// is counted off the request path.
func (h *Handlers) StartContext(w http.ResponseWriter, r *http.Request) {
	var req startContextRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	userID := caller(r).UserID
	snap, err := h.player.StartContext(r.Context(), userID, db.ContextType(req.Type), req.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if len(snap.Queue) > 0 {
		if err := h.ledger.RecordPlay(r.Context(), userID, snap.Context.ID, snap.Queue[0]); err != nil {
			respondError(w, h.logger, err)
			return
		}

		ref := db.EntityRef{Kind: db.KindTrack, ID: snap.Queue[0]}
		go func() {
			if err := h.recorder.RecordListen(context.Background(), ref); err != nil {
				h.logger.Warn("recording context-start listen",
					zap.String("track", ref.ID), zap.Error(err))
			}
		}()
	}

	respondJSON(w, http.StatusCreated, snap)
}

// Shuffle re-randomizes the active queue (POST /v1/me/player/shuffle).
func (h *Handlers) Shuffle(w http.ResponseWriter, r *http.Request) {
	snap, err := h.player.Shuffle(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type nextResponse struct {
	TrackID string `json:"trackId"`
	Href    string `json:"href"`
}

// Next advances the queue (POST /v1/me/player/next).
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	trackID, err := h.player.Advance(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, nextResponse{
		TrackID: trackID,
		Href:    "/v1/tracks/" + trackID,
	})
}

type validateRequest struct {
	TrackID string `json:"trackId"`
}

type validateResponse struct {
	Decision int    `json:"decision"`
	Status   string `json:"status"`
}

// ValidateTrack gates a play attempt (POST /v1/me/player/validate).
func (h *Handlers) ValidateTrack(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.TrackID == "" {
		respondError(w, h.logger, badRequestf("trackId is required"))
		return
	}

	id := caller(r)
	decision, err := h.player.ValidateTrack(r.Context(), id.UserID, id.Role, req.TrackID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, validateResponse{
		Decision: int(decision),
		Status:   decision.String(),
	})
}

type recentlyPlayedItem struct {
	TrackID   string    `json:"trackId"`
	ContextID string    `json:"contextId"`
	PlayedAt  time.Time `json:"playedAt"`
}

type recentlyPlayedResponse struct {
	Items []recentlyPlayedItem `json:"items"`
}

// RecentlyPlayed lists the caller's ledger page (GET /v1/me/recently-played).
func (h *Handlers) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	entries, err := h.ledger.Recent(r.Context(), caller(r).UserID, limit, offset)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	items := make([]recentlyPlayedItem, len(entries))
	for i, entry := range entries {
		items[i] = recentlyPlayedItem{
			TrackID:   entry.TrackID,
			ContextID: entry.ContextID.String(),
			PlayedAt:  entry.PlayedAt,
		}
	}
	respondJSON(w, http.StatusOK, recentlyPlayedResponse{Items: items})
}

// RecordListen counts a listen (POST /v1/{tracks,albums}/{id}/listens).
func (h *Handlers) RecordListen(kind db.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := db.EntityRef{Kind: kind, ID: chi.URLParam(r, "id")}
		if err := h.recorder.RecordListen(r.Context(), ref); err != nil {
			respondError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RecordLike records the caller's like (POST /v1/{tracks,albums}/{id}/likes).
func (h *Handlers) RecordLike(kind db.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := db.EntityRef{Kind: kind, ID: chi.URLParam(r, "id")}
		if err := h.recorder.RecordLike(r.Context(), ref, caller(r).UserID); err != nil {
			respondError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type statsResponse struct {
	Kind        string         `json:"kind"`
	ID          string         `json:"id"`
	Metric      string         `json:"metric"`
	Granularity string         `json:"granularity"`
	Series      []stats.Bucket `json:"series"`
}

// Stats serves the dashboard series (GET /v1/{tracks,albums}/{id}/stats).
func (h *Handlers) Stats(kind db.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := db.EntityRef{Kind: kind, ID: chi.URLParam(r, "id")}

		metric := stats.MetricListens
		if raw := r.URL.Query().Get("metric"); raw != "" {
			metric = stats.Metric(raw)
		}

		granularity := timebucket.Daily
		if raw := r.URL.Query().Get("granularity"); raw != "" {
			granularity = timebucket.Granularity(raw)
		}

		var (
			series []stats.Bucket
			err    error
		)
		switch granularity {
		case timebucket.Daily:
			series, err = h.stats.Daily(r.Context(), ref, metric)
		case timebucket.Monthly:
			series, err = h.stats.Monthly(r.Context(), ref, metric)
		case timebucket.Yearly:
			series, err = h.stats.Yearly(r.Context(), ref, metric)
		default:
			err = badRequestf("unknown granularity %q", granularity)
		}
		if err != nil {
			respondError(w, h.logger, err)
			return
		}

		respondJSON(w, http.StatusOK, statsResponse{
			Kind:        string(kind),
			ID:          ref.ID,
			Metric:      string(metric),
			Granularity: string(granularity),
			Series:      series,
		})
	}
}

// pagination parses limit and offset query parameters; unparseable values
// fall back to the ledger defaults.
func pagination(r *http.Request) (limit, offset int) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}
