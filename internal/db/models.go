package db

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's subscription tier.
type Role string

const (
	RoleUser    Role = "user"
	RolePremium Role = "premium"
	RoleArtist  Role = "artist"
)

// Valid reports whether r is a known tier.
func (r Role) Valid() bool {
	return r == RoleUser || r == RolePremium || r == RoleArtist
}

// User represents an account: a listener, a premium subscriber, or an artist.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Role        Role
	Image       *string // nullable
	Followers   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListenEntry is one day's aggregated listen count. A history holds at most
// one entry per calendar day and entries are appended in non-decreasing day
// order; days are UTC midnights.
type ListenEntry struct {
	Day   time.Time `json:"day"`
	Count int       `json:"numberOfListens"`
}

// LikeEntry records a single user's like. A history holds at most one entry
// per user id.
type LikeEntry struct {
	Day    time.Time `json:"day"`
	UserID string    `json:"userId"`
}

// EntityKind distinguishes the engagement-bearing entities.
type EntityKind string

const (
	KindTrack EntityKind = "track"
	KindAlbum EntityKind = "album"
)

// EntityRef points at a track or album.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// Engageable is satisfied by entities carrying listen and like histories
// (tracks and albums). It replaces the source system's structural duck
// typing with an explicit contract, so the engagement recorder and the
// stats service work on either entity through the same methods.
type Engageable interface {
	Ref() EntityRef
	ListenHistory() []ListenEntry
	ReplaceListenHistory(history []ListenEntry)
	LikeHistory() []LikeEntry
	ReplaceLikeHistory(history []LikeEntry)
}

// Track represents a playable track.
type Track struct {
	ID         string
	Title      string
	ArtistID   string
	AlbumID    *string // nullable
	DurationMs *int    // nullable
	Listens    []ListenEntry
	Likes      []LikeEntry
	CreatedAt  time.Time
}

// Ref implements Engageable.
func (t *Track) Ref() EntityRef { return EntityRef{Kind: KindTrack, ID: t.ID} }

// ListenHistory implements Engageable.
func (t *Track) ListenHistory() []ListenEntry { return t.Listens }

// ReplaceListenHistory implements Engageable.
func (t *Track) ReplaceListenHistory(history []ListenEntry) { t.Listens = history }

// LikeHistory implements Engageable.
func (t *Track) LikeHistory() []LikeEntry { return t.Likes }

// ReplaceLikeHistory implements Engageable.
func (t *Track) ReplaceLikeHistory(history []LikeEntry) { t.Likes = history }

// Album represents an album and its ordered track listing.
type Album struct {
	ID        string
	Name      string
	ArtistID  string
	Image     *string // nullable
	TrackIDs  []string
	Listens   []ListenEntry
	Likes     []LikeEntry
	CreatedAt time.Time
}

// Ref implements Engageable.
func (a *Album) Ref() EntityRef { return EntityRef{Kind: KindAlbum, ID: a.ID} }

// ListenHistory implements Engageable.
func (a *Album) ListenHistory() []ListenEntry { return a.Listens }

// ReplaceListenHistory implements Engageable.
func (a *Album) ReplaceListenHistory(history []ListenEntry) { a.Listens = history }

// LikeHistory implements Engageable.
func (a *Album) LikeHistory() []LikeEntry { return a.Likes }

// ReplaceLikeHistory implements Engageable.
func (a *Album) ReplaceLikeHistory(history []LikeEntry) { a.Likes = history }

// Playlist represents a user-curated playlist.
type Playlist struct {
	ID        string
	Name      string
	OwnerID   string
	Image     *string // nullable
	TrackIDs  []string
	Followers int
	CreatedAt time.Time
}

// ContextType names what a playback context was started from.
type ContextType string

const (
	ContextAlbum    ContextType = "album"
	ContextArtist   ContextType = "artist"
	ContextPlaylist ContextType = "playlist"
)

// PlayContext is an ephemeral snapshot of what is currently playing. A fresh
// context is created on every context start; contexts are owned by their
// play-history entry and deleted with it.
type PlayContext struct {
	ID               uuid.UUID
	Type             ContextType
	ReferenceID      string
	DisplayName      string
	Images           []string
	Followers        int
	CurrentTrackHref string
	CreatedAt        time.Time
}

// PlayerState is the per-user playback document: the active context, the
// shuffled queue, the next-slot offset, and the forced-ad counter. One row
// per user; never deleted while the user exists.
type PlayerState struct {
	UserID    string
	ContextID *uuid.UUID // nil while idle
	Queue     []string
	Offset    int
	AdsPlayed int
	UpdatedAt time.Time
}

// PlayHistory is one entry of a user's bounded recently-played ledger.
type PlayHistory struct {
	ID        uuid.UUID
	UserID    string
	ContextID uuid.UUID
	TrackID   string
	PlayedAt  time.Time
}

// Session represents an authenticated bearer session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
