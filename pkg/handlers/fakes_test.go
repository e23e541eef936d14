package handlers

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

const guild = snowflake.ID(7)

type fakeQueue struct {
	mu       sync.Mutex
	tracks   []cache.Track
	current  *cache.Track
	autoplay bool
	failing  bool
	fallback *cache.Track
	pauseErr error
	skipped  int
	stopped  int
	enqueued []bool
}

func (q *fakeQueue) Enqueue(_ context.Context, _ snowflake.ID, track cache.Track, userRequested, playNext bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, playNext)
	track.IsUserRequested = userRequested
	if q.failing {
		if q.fallback != nil {
			auto := *q.fallback
			q.tracks = []cache.Track{auto}
			q.current = &auto
		}
		return 0
	}
	if q.current == nil {
		q.tracks = append(q.tracks, track)
		t := track
		q.current = &t
		return len(q.tracks) - 1
	}
	if playNext {
		q.tracks = slices.Insert(q.tracks, 1, track)
		return 1
	}
	q.tracks = append(q.tracks, track)
	return len(q.tracks) - 1
}

func (q *fakeQueue) Skip(snowflake.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.skipped++
	return q.current != nil
}

func (q *fakeQueue) Stop(snowflake.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped++
	q.tracks, q.current = nil, nil
}

func (q *fakeQueue) Pause(snowflake.ID) error  { return q.pauseErr }
func (q *fakeQueue) Resume(snowflake.ID) error { return q.pauseErr }

func (q *fakeQueue) ToggleAutoplay(context.Context, snowflake.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.autoplay = !q.autoplay
	return q.autoplay
}

func (q *fakeQueue) AutoplayState(context.Context, snowflake.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.autoplay
}

func (q *fakeQueue) CurrentTrack(snowflake.ID) *cache.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return nil
	}
	t := *q.current
	return &t
}

func (q *fakeQueue) Tracks(snowflake.ID) []cache.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.tracks)
}

type searchCall struct {
	query string
	limit int
}

type fakeSearch struct {
	calls   []searchCall
	results map[string][]dl.Candidate
	err     error
}

func (f *fakeSearch) Search(_ context.Context, query string, limit int) ([]dl.Candidate, error) {
	f.calls = append(f.calls, searchCall{query, limit})
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type fakeLookup struct {
	queries []string
}

func (f *fakeLookup) Lookup(_ context.Context, query string) (*dl.Candidate, error) {
	f.queries = append(f.queries, query)
	return &dl.Candidate{ID: "dQw4w9WgXcQ", Title: "Linked", Duration: 212, URL: dl.WatchURL("dQw4w9WgXcQ")}, nil
}

type fakeSpotify struct {
	track *dl.SpotifyTrack
	err   error
}

func (f *fakeSpotify) Track(context.Context, string) (*dl.SpotifyTrack, error) {
	return f.track, f.err
}

type fakeStats struct {
	stats cache.Stats
}

func (f fakeStats) Stats() cache.Stats { return f.stats }

var errOffline = errors.New("offline")

func newHandler() (*Handler, *fakeQueue, *fakeSearch) {
	q := &fakeQueue{}
	s := &fakeSearch{results: map[string][]dl.Candidate{}}
	return &Handler{Manager: q, Search: s, Lookup: &fakeLookup{}}, q, s
}

func request(query string) Request {
	return Request{GuildID: guild, User: "alice#0001", Lang: "en", InVoice: true, Query: query}
}
