package vc

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

// historyLimit bounds the ids remembered by autoplay per guild.
const historyLimit = 50

// History is a bounded, insertion ordered set of track ids already chosen by autoplay.
type History struct {
	mu    sync.Mutex
	ids   []string
	limit int
}

// NewHistory returns a history keeping at most limit ids.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Contains reports whether id was recorded.
func (h *History) Contains(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Contains(h.ids, id)
}

// Push records id, dropping the oldest ids beyond the limit.
func (h *History) Push(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, id)
	if over := len(h.ids) - h.limit; h.limit > 0 && over > 0 {
		h.ids = append([]string(nil), h.ids[over:]...)
	}
}

// Reset forgets every id.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = nil
}

// Snapshot returns a copy of the ids, oldest first.
func (h *History) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ids...)
}

// Session is the playback state of one guild.
// tracks[0] is the track being played while playing is true; current may briefly
// differ from it when a user request dropped a playing autoplay track.
type Session struct {
	mu       sync.Mutex
	guildID  snowflake.ID
	tracks   []*cache.Track
	current  *cache.Track
	playing  bool
	starting bool
	autoplay bool
	history  *History
	player   Player
	gen      uint64
	closed   bool

	// idleEarly records an idle signal for gen that arrived while starting was still set.
	idleEarly bool
}

func newSession(guildID snowflake.ID, autoplay bool) *Session {
	return &Session{
		guildID:  guildID,
		autoplay: autoplay,
		history:  NewHistory(historyLimit),
	}
}

// enqueueLocked adds track and returns its index in tracks, or -1 when it was rejected.
func (s *Session) enqueueLocked(track *cache.Track, userRequested, playNext bool) int {
	if !userRequested {
		if len(s.tracks) != 0 {
			return -1
		}
		track.IsUserRequested = false
		s.tracks = append(s.tracks, track)
		return 0
	}

	s.tracks = lo.Filter(s.tracks, func(t *cache.Track, _ int) bool {
		return t.IsUserRequested
	})
	track.IsUserRequested = true

	if playNext && s.playing {
		pos := 0
		if len(s.tracks) > 0 && s.tracks[0] == s.current {
			pos = 1
		}
		s.tracks = append(s.tracks[:pos], append([]*cache.Track{track}, s.tracks[pos:]...)...)
		return pos
	}

	s.tracks = append(s.tracks, track)
	return len(s.tracks) - 1
}

// popFinishedLocked removes the front track if it is the one that just played.
func (s *Session) popFinishedLocked() {
	if s.current != nil && len(s.tracks) > 0 && s.tracks[0] == s.current {
		s.tracks = s.tracks[1:]
	}
}

// dropLocked removes track from the queue.
func (s *Session) dropLocked(track *cache.Track) {
	s.tracks = lo.Filter(s.tracks, func(t *cache.Track, _ int) bool {
		return t != track
	})
}

// preloadTargetsLocked returns the URLs worth warming in the cache: the three tracks
// that follow the playing one. The front track is skipped only while it is the one playing.
func (s *Session) preloadTargetsLocked() []string {
	start := 0
	if s.playing && len(s.tracks) > 0 && s.tracks[0] == s.current {
		start = 1
	}
	end := min(start+3, len(s.tracks))
	if start >= end {
		return nil
	}

	urls := make([]string, 0, end-start)
	for _, t := range s.tracks[start:end] {
		if t.URL != "" {
			urls = append(urls, t.URL)
		}
	}
	return urls
}

func (s *Session) snapshotLocked() []cache.Track {
	out := make([]cache.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = *t
	}
	return out
}
