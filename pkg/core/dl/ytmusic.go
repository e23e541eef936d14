package dl

import (
	"context"
	"fmt"

	"github.com/raitonoberu/ytmusic"
)

// YtMusicResolver searches YouTube Music tracks.
type YtMusicResolver struct{}

// Search implements RelatedTrackResolver.
// The client library has no context support, so ctx is only checked before and after the call.
func (YtMusicResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := ytmusic.TrackSearch(query).Next()
	if err != nil {
		return nil, fmt.Errorf("ytmusic search: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, max(limit, 0))
	for _, track := range result.Tracks {
		if track.VideoID == "" {
			continue
		}
		channel := ""
		if len(track.Artists) > 0 {
			channel = track.Artists[0].Name
		}
		out = append(out, Candidate{
			ID:       track.VideoID,
			Title:    track.Title,
			Channel:  channel,
			Duration: track.Duration,
			URL:      WatchURL(track.VideoID),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
