package dl

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrInvalidSpotifyURL is returned for Spotify links that do not point at a single track.
	ErrInvalidSpotifyURL = errors.New("invalid spotify track url")

	spotifyTrackRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]+/)?track/([a-zA-Z0-9]+)`)
	spotifyURIRegex   = regexp.MustCompile(`spotify:track:([a-zA-Z0-9]+)`)
)

// SpotifyTrack is the metadata needed to find a Spotify track elsewhere.
type SpotifyTrack struct {
	ID       string
	Name     string
	Artist   string
	Duration int
}

// Query is the text used to search the track on YouTube.
func (t SpotifyTrack) Query() string {
	return strings.TrimSpace(t.Name + " " + t.Artist)
}

// SpotifyClient reads track metadata from the Spotify Web API with app credentials.
// Spotify audio itself is never downloaded; tracks are played through a YouTube search.
type SpotifyClient struct {
	client *spotify.Client
}

// NewSpotifyClient authenticates with the client credentials flow; tokens refresh automatically.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) *SpotifyClient {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &SpotifyClient{client: spotify.New(cfg.Client(ctx))}
}

// IsSpotifyURL reports whether query points at Spotify.
func IsSpotifyURL(query string) bool {
	return strings.Contains(query, "spotify.com") || strings.HasPrefix(query, "spotify:")
}

// SpotifyTrackID extracts the track id of a Spotify track link or URI.
func SpotifyTrackID(query string) (string, error) {
	if m := spotifyTrackRegex.FindStringSubmatch(query); len(m) > 1 {
		return m[1], nil
	}
	if m := spotifyURIRegex.FindStringSubmatch(query); len(m) > 1 {
		return m[1], nil
	}
	return "", ErrInvalidSpotifyURL
}

// Track fetches the metadata of one track.
func (s *SpotifyClient) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	track, err := s.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("spotify: %w", err)
	}

	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}
	return &SpotifyTrack{
		ID:       trackID,
		Name:     track.Name,
		Artist:   artist,
		Duration: int(track.Duration) / 1000,
	}, nil
}
