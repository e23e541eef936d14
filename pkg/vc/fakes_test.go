package vc

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/db"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

const guild = snowflake.ID(42)

type fakeSource struct {
	mu        sync.Mutex
	failing   map[string]bool
	fetched   []string
	preloaded []string
	gate      chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{failing: make(map[string]bool)}
}

func (f *fakeSource) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	gate := f.gate
	fail := f.failing[url]
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, &cache.FetchError{URL: url, Err: errors.New("exit status 1")}
	}
	return io.NopCloser(strings.NewReader("audio:" + url)), nil
}

func (f *fakeSource) Preload(_ context.Context, url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preloaded = append(f.preloaded, url)
	return !f.failing[url]
}

func (f *fakeSource) preloadedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.preloaded...)
}

// fakePlayer records what it played. Stop and finish fire the pending idle callback once.
type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	idle    func()
	instant bool
	paused  bool
	closed  bool
	stops   int
}

func (p *fakePlayer) Play(res *Resource, onIdle func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	_ = res.Stream.Close()
	p.played = append(p.played, res.Track.Title)
	if p.instant {
		p.mu.Unlock()
		onIdle()
		return nil
	}
	p.idle = onIdle
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) finish() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()
	if idle != nil {
		idle()
	}
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	p.finish()
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	return nil
}

func (p *fakePlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlayer) titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

func (p *fakePlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeTransport struct {
	mu       sync.Mutex
	player   *fakePlayer
	connects int
}

func (t *fakeTransport) Connect(context.Context, snowflake.ID) (Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++
	return t.player, nil
}

type fakeResolver struct {
	mu      sync.Mutex
	queries []string
	fn      func(query string) ([]dl.Candidate, error)
}

func (r *fakeResolver) Search(_ context.Context, query string, _ int) ([]dl.Candidate, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	fn := r.fn
	r.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(query)
}

func (r *fakeResolver) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func returning(results ...dl.Candidate) func(string) ([]dl.Candidate, error) {
	return func(string) ([]dl.Candidate, error) { return results, nil }
}

type harness struct {
	m         *Manager
	source    *fakeSource
	player    *fakePlayer
	transport *fakeTransport
	resolver  *fakeResolver
	store     *db.Memory
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		source:   newFakeSource(),
		player:   &fakePlayer{},
		resolver: &fakeResolver{},
		store:    db.NewMemory(),
	}
	h.transport = &fakeTransport{player: h.player}

	selector := NewAutoplaySelector(h.resolver, 10)
	selector.intn = func(int) int { return 0 }

	h.m = NewManager(h.source, selector, h.transport, h.store, opts...)
	t.Cleanup(h.m.Close)
	return h
}

func track(title string) cache.Track {
	return cache.Track{ID: title, Title: title, URL: "https://example.com/" + title, RequestedBy: "tester"}
}

func titles(tracks []cache.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}
