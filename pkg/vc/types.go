package vc

import (
	"context"
	"errors"
	"io"

	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

// DefaultVolume is applied to every resource handed to a player.
const DefaultVolume = 0.5

var (
	// ErrNoPlayer is returned when a session has no audio player to forward a command to.
	ErrNoPlayer = errors.New("no active player")
	// ErrPlayerClosed is returned by players after Close.
	ErrPlayerClosed = errors.New("player closed")

	errSessionGone = errors.New("session stopped")
)

// AudioSource is the part of the audio cache a Manager needs.
// *cache.AudioCache satisfies it.
type AudioSource interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
	Preload(ctx context.Context, url string) bool
}

var _ AudioSource = (*cache.AudioCache)(nil)

// Resource is a playable stream with the track it belongs to.
type Resource struct {
	Track  cache.Track
	Stream io.ReadCloser
	Volume float64
}

// Player plays one resource at a time on an established connection.
// onIdle must be invoked exactly once, when the resource stops playing for any reason.
// The Player owns res.Stream once Play returns nil.
type Player interface {
	Play(res *Resource, onIdle func()) error
	Stop() error
	Pause() error
	Resume() error
	Close() error
}

// Transport establishes a Player for a guild.
type Transport interface {
	Connect(ctx context.Context, guildID snowflake.ID) (Player, error)
}

// SettingsStore persists per-guild preferences.
type SettingsStore interface {
	Autoplay(ctx context.Context, guildID snowflake.ID) (enabled bool, found bool, err error)
	SetAutoplay(ctx context.Context, guildID snowflake.ID, enabled bool) error
}

// TrackStartFunc is called after a track was handed to the player.
type TrackStartFunc func(guildID snowflake.ID, track cache.Track)
