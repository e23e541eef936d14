package vc

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/Laky-64/gologging"
	"github.com/samber/lo"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

const (
	defaultSearchLimit = 10
	topPick            = 5
	unknownArtist      = "Unknown Artist"
)

// AutoplaySelector picks a track related to the one that just finished.
type AutoplaySelector struct {
	resolver dl.RelatedTrackResolver
	limit    int
	intn     func(n int) int
}

// NewAutoplaySelector returns a selector asking resolver for up to limit candidates per search.
func NewAutoplaySelector(resolver dl.RelatedTrackResolver, limit int) *AutoplaySelector {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &AutoplaySelector{resolver: resolver, limit: limit, intn: rand.IntN}
}

// FindRelated returns a track related to previous that is not in history, or nil.
// The caller pushes the track to history once it is queued. When every candidate
// was already played the history is reset and the search repeated once.
func (a *AutoplaySelector) FindRelated(ctx context.Context, history *History, previous *cache.Track) *cache.Track {
	if previous == nil {
		return nil
	}

	query := strings.TrimSpace(previous.Artist + " " + previous.Title)
	gologging.InfoF("[Autoplay] Searching for songs related to: %s", query)

	for attempt := 0; attempt < 2; attempt++ {
		results, err := a.search(ctx, query)
		if err != nil {
			gologging.WarnF("[Autoplay] Error finding related song for %q: %v", query, err)
			return nil
		}
		if len(results) == 0 {
			gologging.InfoF("[Autoplay] No related songs found for %q", query)
			return nil
		}

		unplayed := lo.Filter(results, func(c dl.Candidate, _ int) bool {
			return !history.Contains(candidateKey(c))
		})
		if len(unplayed) == 0 {
			gologging.InfoF("[Autoplay] History reset for %q", query)
			history.Reset()
			continue
		}

		c := a.pick(unplayed)
		gologging.InfoF("[Autoplay] Found related song: %s", c.Title)
		return candidateTrack(c)
	}
	return nil
}

// search prefers explicit versions and falls back to the plain query.
func (a *AutoplaySelector) search(ctx context.Context, query string) ([]dl.Candidate, error) {
	results, err := a.resolver.Search(ctx, query+" explicit", a.limit)
	if err != nil || len(results) > 0 {
		return results, err
	}
	return a.resolver.Search(ctx, query, a.limit)
}

// pick chooses randomly among the first few preferred candidates, skipping the very first
// entry when there is an alternative since it tends to be the track that just played.
func (a *AutoplaySelector) pick(unplayed []dl.Candidate) dl.Candidate {
	pool := lo.Filter(unplayed, func(c dl.Candidate, _ int) bool {
		return dl.IsExplicitTitle(c.Title)
	})
	if len(pool) == 0 {
		pool = unplayed
	}

	idx := min(a.intn(min(len(pool), topPick))+1, len(pool)-1)
	return pool[idx]
}

func candidateKey(c dl.Candidate) string {
	if c.ID != "" {
		return c.ID
	}
	return c.URL
}

// trackKey is the history key of a track built by candidateTrack.
func trackKey(t *cache.Track) string {
	if t.ID != "" {
		return t.ID
	}
	return t.URL
}

func candidateTrack(c dl.Candidate) *cache.Track {
	url := c.URL
	if url == "" {
		url = dl.WatchURL(c.ID)
	}
	artist := c.Channel
	if artist == "" {
		artist = unknownArtist
	}
	return &cache.Track{
		ID:              c.ID,
		Title:           c.Title,
		URL:             url,
		Duration:        c.Duration,
		Artist:          artist,
		IsUserRequested: false,
	}
}
