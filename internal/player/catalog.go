package player

import (
	"context"
	"fmt"

	"github.com/justestif/go-stream-player/internal/db"
)

// ContextSeed is the catalog material a playback context starts from: what to
// show on the player surface plus the unshuffled track listing.
type ContextSeed struct {
	DisplayName string
	Images      []string
	Followers   int
	TrackIDs    []string
}

// Catalog resolves playable collections to their context seed.
type Catalog interface {
	ResolvePlaylist(ctx context.Context, id string) (*ContextSeed, error)
	ResolveAlbum(ctx context.Context, id string) (*ContextSeed, error)
	ResolveArtist(ctx context.Context, id string) (*ContextSeed, error)
}

// dbCatalog resolves seeds from the database.
type dbCatalog struct {
	db *db.DB
}

// NewCatalog returns a Catalog backed by the database.
func NewCatalog(database *db.DB) Catalog {
	return &dbCatalog{db: database}
}

func (c *dbCatalog) ResolvePlaylist(ctx context.Context, id string) (*ContextSeed, error) {
	playlist, err := c.db.Playlists().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving playlist %s: %w", id, err)
	}
	return &ContextSeed{
		DisplayName: playlist.Name,
		Images:      imageList(playlist.Image),
		Followers:   playlist.Followers,
		TrackIDs:    playlist.TrackIDs,
	}, nil
}

func (c *dbCatalog) ResolveAlbum(ctx context.Context, id string) (*ContextSeed, error) {
	album, err := c.db.Albums().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving album %s: %w", id, err)
	}
	return &ContextSeed{
		DisplayName: album.Name,
		Images:      imageList(album.Image),
		TrackIDs:    album.TrackIDs,
	}, nil
}

// ResolveArtist builds a seed from an artist's whole catalog. The id must
// belong to a user with the artist role; regular users are not playable.
func (c *dbCatalog) ResolveArtist(ctx context.Context, id string) (*ContextSeed, error) {
	user, err := c.db.Users().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving artist %s: %w", id, err)
	}
	if user.Role != db.RoleArtist {
		return nil, fmt.Errorf("user %s is not an artist: %w", id, db.ErrNotFound)
	}

	trackIDs, err := c.db.Tracks().IDsForArtist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing tracks for artist %s: %w", id, err)
	}

	return &ContextSeed{
		DisplayName: user.DisplayName,
		Images:      imageList(user.Image),
		Followers:   user.Followers,
		TrackIDs:    trackIDs,
	}, nil
}

func imageList(image *string) []string {
	if image == nil {
		return nil
	}
	return []string{*image}
}
