package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
	"github.com/zuchzub/guildtunes/pkg/lang"
	"github.com/zuchzub/guildtunes/pkg/vc"
)

// QueueManager is the part of the queue manager the commands drive.
type QueueManager interface {
	Enqueue(ctx context.Context, guildID snowflake.ID, track cache.Track, userRequested, playNext bool) int
	Skip(guildID snowflake.ID) bool
	Stop(guildID snowflake.ID)
	Pause(guildID snowflake.ID) error
	Resume(guildID snowflake.ID) error
	ToggleAutoplay(ctx context.Context, guildID snowflake.ID) bool
	AutoplayState(ctx context.Context, guildID snowflake.ID) bool
	CurrentTrack(guildID snowflake.ID) *cache.Track
	Tracks(guildID snowflake.ID) []cache.Track
}

var _ QueueManager = (*vc.Manager)(nil)

// Lookup resolves a link into one playable candidate.
type Lookup interface {
	Lookup(ctx context.Context, query string) (*dl.Candidate, error)
}

// SpotifyTracks reads Spotify track metadata.
type SpotifyTracks interface {
	Track(ctx context.Context, trackID string) (*dl.SpotifyTrack, error)
}

// CacheStats reports audio cache usage.
type CacheStats interface {
	Stats() cache.Stats
}

// Prober measures the length of audio that carries no metadata.
type Prober interface {
	Duration(ctx context.Context, url string) int
}

// Handler answers the music commands of every guild.
// Spotify is optional; Spotify links are refused when it is nil.
// Probe is optional; direct audio links keep a zero duration without it.
type Handler struct {
	Manager QueueManager
	Search  dl.RelatedTrackResolver
	Lookup  Lookup
	Spotify SpotifyTracks
	Cache   CacheStats
	Probe   Prober
}

// Request is one command invocation.
type Request struct {
	GuildID snowflake.ID
	User    string // User is the display tag of the caller.
	Lang    string
	InVoice bool // InVoice reports whether the caller sits in a voice channel.
	Query   string
}

// Field is a named block of an Embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a titled rich reply.
type Embed struct {
	Title       string
	Description string
	Thumbnail   string
	Footer      string
	Fields      []Field
}

// String renders the embed as plain text.
func (e *Embed) String() string {
	var b strings.Builder
	b.WriteString(e.Title)
	b.WriteString("\n")
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n")
	}
	for _, f := range e.Fields {
		b.WriteString("\n")
		b.WriteString(f.Name)
		b.WriteString(":\n")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	if e.Footer != "" {
		b.WriteString("\n")
		b.WriteString(e.Footer)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reply is the answer to a command. Ephemeral replies are shown to the caller only.
type Reply struct {
	Text      string
	Embed     *Embed
	Ephemeral bool
}

// String renders the reply as plain text.
func (r Reply) String() string {
	if r.Embed == nil {
		return r.Text
	}
	if r.Text == "" {
		return r.Embed.String()
	}
	return r.Text + "\n" + r.Embed.String()
}

func text(req Request, key string, args ...any) Reply {
	return Reply{Text: lang.Format(req.Lang, key, args...)}
}

var (
	errSpotifyDisabled = errors.New("spotify credentials are not configured")
	errSpotifyNotFound = errors.New("spotify track not found on youtube")
)

// spotifyError carries a failure reported by the Spotify API.
type spotifyError struct {
	err error
}

func (e *spotifyError) Error() string { return e.err.Error() }
func (e *spotifyError) Unwrap() error { return e.err }

// failure maps a resolve error to its reply.
func failure(req Request, err error) Reply {
	var se *spotifyError
	switch {
	case errors.Is(err, dl.ErrInvalidSpotifyURL):
		return text(req, "spotify_invalid")
	case errors.Is(err, errSpotifyDisabled):
		return text(req, "spotify_disabled")
	case errors.Is(err, errSpotifyNotFound):
		return text(req, "spotify_not_found")
	case errors.As(err, &se):
		return text(req, "spotify_error", se.err.Error())
	case errors.Is(err, dl.ErrNoResults):
		return text(req, "no_results")
	default:
		gologging.ErrorF("[Handlers] Guild %s: play %q failed: %v", req.GuildID, req.Query, err)
		return text(req, "play_error")
	}
}

// candidateTrack turns a search hit into a queue track.
func candidateTrack(c *dl.Candidate, user string) cache.Track {
	url := c.URL
	if url == "" {
		url = dl.WatchURL(c.ID)
	}
	return cache.Track{
		ID:          c.ID,
		Title:       c.Title,
		URL:         url,
		Duration:    c.Duration,
		Thumbnail:   dl.ThumbnailURL(c.ID),
		RequestedBy: user,
		Artist:      c.Channel,
	}
}

// requester names who queued a track.
func requester(req Request, t cache.Track) string {
	if t.RequestedBy != "" {
		return t.RequestedBy
	}
	return lang.GetString(req.Lang, "np_autoplay")
}
