package vc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

const storeTimeout = 5 * time.Second

// Manager owns every guild's playback session.
// The registry lock only guards the session map; each Session serialises its own state
// and is never locked across a download, a search or a transport call.
type Manager struct {
	source          AudioSource
	selector        *AutoplaySelector
	transport       Transport
	store           SettingsStore
	autoplayDefault bool
	onTrackStart    []TrackStartFunc

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session

	preloads *preloader
	ctx      context.Context
	cancel   context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithAutoplayDefault sets the autoplay state of guilds with no stored preference.
func WithAutoplayDefault(enabled bool) Option {
	return func(m *Manager) { m.autoplayDefault = enabled }
}

// WithTrackStart registers fn to run after each track starts.
func WithTrackStart(fn TrackStartFunc) Option {
	return func(m *Manager) { m.onTrackStart = append(m.onTrackStart, fn) }
}

// NewManager creates a manager. selector, transport and store may be nil:
// without a selector autoplay never continues, without a transport every guild needs Attach,
// and without a store autoplay preferences live only as long as the session.
func NewManager(source AudioSource, selector *AutoplaySelector, transport Transport, store SettingsStore, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		source:       source,
		selector:     selector,
		transport:    transport,
		store:        store,
		onTrackStart: []TrackStartFunc{logTrackStart},
		sessions:     make(map[snowflake.ID]*Session),
		preloads:     &preloader{source: source},
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the live session of guildID or nil.
func (m *Manager) lookup(guildID snowflake.ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[guildID]
}

// session returns the session of guildID, creating it with the stored autoplay preference.
func (m *Manager) session(ctx context.Context, guildID snowflake.ID) *Session {
	if s := m.lookup(guildID); s != nil {
		return s
	}

	fresh := newSession(guildID, m.storedAutoplay(ctx, guildID))

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[guildID]; ok {
		return s
	}
	m.sessions[guildID] = fresh
	return fresh
}

// lockedSession returns the locked, open session of guildID. A session closed by a concurrent
// Stop is replaced by a fresh one.
func (m *Manager) lockedSession(ctx context.Context, guildID snowflake.ID) *Session {
	for {
		s := m.session(ctx, guildID)
		s.mu.Lock()
		if !s.closed {
			return s
		}
		s.mu.Unlock()
	}
}

func (m *Manager) storedAutoplay(ctx context.Context, guildID snowflake.ID) bool {
	if m.store == nil {
		return m.autoplayDefault
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	enabled, found, err := m.store.Autoplay(ctx, guildID)
	if err != nil {
		gologging.WarnF("[Queue] Guild %s: failed to load the autoplay setting: %v", guildID, err)
		return m.autoplayDefault
	}
	if !found {
		return m.autoplayDefault
	}
	return enabled
}

// Enqueue adds track to the guild's queue and starts playback when the guild is idle.
// A user-requested track drops pending autoplay tracks and lands right after the playing
// track when playNext is set. An autoplay track is only accepted by an empty queue.
// It returns the index the track landed at, or -1 when it was not added.
func (m *Manager) Enqueue(ctx context.Context, guildID snowflake.ID, track cache.Track, userRequested, playNext bool) int {
	s := m.lockedSession(ctx, guildID)
	t := track
	idx := s.enqueueLocked(&t, userRequested, playNext)
	if idx < 0 {
		s.mu.Unlock()
		gologging.DebugF("[Queue] Guild %s: autoplay track %q rejected, queue is not empty", guildID, track.Title)
		return -1
	}

	start := !s.playing && !s.starting
	if start {
		s.starting = true
	}
	upcoming := s.preloadTargetsLocked()
	s.mu.Unlock()

	gologging.InfoF("[Queue] Guild %s: queued %q at position %d", guildID, track.Title, idx)
	m.preloads.spawn(m.ctx, guildID, upcoming)
	if start {
		m.startNext(s)
	}
	return idx
}

// AdvanceOnCompletion pops the finished track and starts the next one.
func (m *Manager) AdvanceOnCompletion(guildID snowflake.ID) {
	s := m.lookup(guildID)
	if s == nil {
		return
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	m.advance(s, gen)
}

// advance handles the idle signal of the track started as generation gen.
// Signals from an older generation or a stopped session are ignored.
func (m *Manager) advance(s *Session, gen uint64) {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	if s.starting {
		// The track ended before startNext finished handing it over.
		s.idleEarly = true
		s.mu.Unlock()
		return
	}
	s.popFinishedLocked()
	s.starting = true
	s.mu.Unlock()

	m.startNext(s)
}

// startNext plays the front of the queue. Tracks that fail to play are dropped and the next
// one is tried; an empty queue falls back to autoplay. The caller must have set s.starting.
func (m *Manager) startNext(s *Session) {
	for {
		s.mu.Lock()
		if s.closed {
			s.starting = false
			s.mu.Unlock()
			return
		}

		if len(s.tracks) == 0 {
			previous := s.current
			s.current = nil
			s.playing = false
			if !s.autoplay || previous == nil || m.selector == nil {
				s.starting = false
				s.mu.Unlock()
				gologging.InfoF("[Queue] Guild %s: queue finished", s.guildID)
				return
			}
			s.mu.Unlock()

			gologging.InfoF("[Queue] Guild %s: queue empty, searching for an autoplay song...", s.guildID)
			related := m.selector.FindRelated(m.ctx, s.history, previous)

			s.mu.Lock()
			if s.closed {
				s.starting = false
				s.mu.Unlock()
				return
			}
			if related != nil && s.enqueueLocked(related, false, false) >= 0 {
				s.history.Push(trackKey(related))
			}
			if len(s.tracks) == 0 {
				s.starting = false
				s.mu.Unlock()
				gologging.InfoF("[Queue] Guild %s: queue finished", s.guildID)
				return
			}
			upcoming := s.preloadTargetsLocked()
			s.mu.Unlock()

			m.preloads.spawn(m.ctx, s.guildID, upcoming)
			continue
		}

		track := s.tracks[0]
		s.current = track
		s.playing = true
		s.gen++
		s.idleEarly = false
		gen := s.gen
		s.mu.Unlock()

		err := m.play(s, track, gen)
		if err == nil {
			for _, fn := range m.onTrackStart {
				fn(s.guildID, *track)
			}

			s.mu.Lock()
			if s.idleEarly && !s.closed {
				s.idleEarly = false
				s.popFinishedLocked()
				s.mu.Unlock()
				continue
			}
			s.starting = false
			upcoming := s.preloadTargetsLocked()
			s.mu.Unlock()

			m.preloads.spawn(m.ctx, s.guildID, upcoming)
			return
		}

		if errors.Is(err, errSessionGone) {
			s.mu.Lock()
			s.starting = false
			s.mu.Unlock()
			return
		}

		gologging.ErrorF("[Queue] Guild %s: error playing %q, skipping: %v", s.guildID, track.Title, err)
		s.mu.Lock()
		s.dropLocked(track)
		s.mu.Unlock()
	}
}

// play fetches track and hands it to the guild's player, connecting one if needed.
func (m *Manager) play(s *Session, track *cache.Track, gen uint64) error {
	player, err := m.player(s)
	if err != nil {
		return err
	}

	gologging.InfoF("[Queue] Guild %s: playing song: %s", s.guildID, track.Title)
	stream, err := m.source.Fetch(m.ctx, track.URL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	stale := s.closed || s.gen != gen
	s.mu.Unlock()
	if stale {
		_ = stream.Close()
		return errSessionGone
	}

	res := &Resource{Track: *track, Stream: stream, Volume: DefaultVolume}
	if err := player.Play(res, func() { go m.advance(s, gen) }); err != nil {
		_ = stream.Close()
		return fmt.Errorf("player: %w", err)
	}
	return nil
}

// player returns the session's player, connecting through the transport when there is none.
func (m *Manager) player(s *Session) (Player, error) {
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player != nil {
		return player, nil
	}
	if m.transport == nil {
		return nil, ErrNoPlayer
	}

	ctx, cancel := context.WithTimeout(m.ctx, storeTimeout)
	defer cancel()
	fresh, err := m.transport.Connect(ctx, s.guildID)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		_ = fresh.Close()
		return nil, errSessionGone
	case s.player != nil:
		_ = fresh.Close()
		return s.player, nil
	}
	s.player = fresh
	return fresh, nil
}

// Attach makes player the audio output of guildID, closing any previous one.
func (m *Manager) Attach(ctx context.Context, guildID snowflake.ID, player Player) {
	s := m.lockedSession(ctx, guildID)
	old := s.player
	s.player = player
	s.mu.Unlock()

	if old != nil && old != player {
		if err := old.Close(); err != nil {
			gologging.WarnF("[Queue] Guild %s: failed to close the previous player: %v", guildID, err)
		}
	}
}

// Skip stops the playing track; the idle signal then advances the queue.
// It reports false when the guild has no player.
func (m *Manager) Skip(guildID snowflake.ID) bool {
	s := m.lookup(guildID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	player := s.player
	s.mu.Unlock()
	if player == nil {
		return false
	}

	if err := player.Stop(); err != nil {
		gologging.WarnF("[Queue] Guild %s: failed to stop the player: %v", guildID, err)
	}
	return true
}

// Stop clears the queue, releases the player and forgets the session.
func (m *Manager) Stop(guildID snowflake.ID) {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	delete(m.sessions, guildID)
	m.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	s.closed = true
	s.tracks = nil
	s.current = nil
	s.playing = false
	s.gen++
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		if err := player.Stop(); err != nil {
			gologging.WarnF("[Queue] Guild %s: failed to stop the player: %v", guildID, err)
		}
		if err := player.Close(); err != nil {
			gologging.WarnF("[Queue] Guild %s: failed to close the player: %v", guildID, err)
		}
	}
	gologging.InfoF("[Queue] Guild %s: stopped", guildID)
}

// Pause pauses the guild's player without touching the queue.
func (m *Manager) Pause(guildID snowflake.ID) error {
	player := m.activePlayer(guildID)
	if player == nil {
		return ErrNoPlayer
	}
	return player.Pause()
}

// Resume resumes the guild's player.
func (m *Manager) Resume(guildID snowflake.ID) error {
	player := m.activePlayer(guildID)
	if player == nil {
		return ErrNoPlayer
	}
	return player.Resume()
}

func (m *Manager) activePlayer(guildID snowflake.ID) Player {
	s := m.lookup(guildID)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// ToggleAutoplay flips the guild's autoplay flag, stores it and returns the new value.
func (m *Manager) ToggleAutoplay(ctx context.Context, guildID snowflake.ID) bool {
	s := m.lockedSession(ctx, guildID)
	s.autoplay = !s.autoplay
	enabled := s.autoplay
	s.mu.Unlock()

	if enabled {
		gologging.InfoF("[Queue] Guild %s: autoplay enabled", guildID)
	} else {
		gologging.InfoF("[Queue] Guild %s: autoplay disabled", guildID)
	}

	if m.store != nil {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if err := m.store.SetAutoplay(ctx, guildID, enabled); err != nil {
			gologging.WarnF("[Queue] Guild %s: failed to store the autoplay setting: %v", guildID, err)
		}
	}
	return enabled
}

// AutoplayState returns the guild's autoplay flag.
func (m *Manager) AutoplayState(ctx context.Context, guildID snowflake.ID) bool {
	if s := m.lookup(guildID); s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.autoplay
	}
	return m.storedAutoplay(ctx, guildID)
}

// CurrentTrack returns a copy of the playing track, or nil.
func (m *Manager) CurrentTrack(guildID snowflake.ID) *cache.Track {
	s := m.lookup(guildID)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// Tracks returns a copy of the queue; the first element is the playing track while playing.
func (m *Manager) Tracks(guildID snowflake.ID) []cache.Track {
	s := m.lookup(guildID)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AutoplayHistory returns the ids autoplay already picked for the guild, oldest first.
func (m *Manager) AutoplayHistory(guildID snowflake.ID) []string {
	s := m.lookup(guildID)
	if s == nil {
		return nil
	}
	return s.history.Snapshot()
}

// IsPlaying reports whether the guild has a track playing.
func (m *Manager) IsPlaying(guildID snowflake.ID) bool {
	s := m.lookup(guildID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// ActiveGuilds lists the guilds with a session, in ascending id order.
func (m *Manager) ActiveGuilds() []snowflake.ID {
	m.mu.Lock()
	ids := make([]snowflake.ID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// Close stops every session and waits for background preloads to return.
func (m *Manager) Close() {
	for _, id := range m.ActiveGuilds() {
		m.Stop(id)
	}
	m.cancel()
	m.preloads.close()
}
