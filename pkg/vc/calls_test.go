package vc

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestEnqueuePlaysImmediatelyAndGoesIdle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	idx := h.m.Enqueue(ctx, guild, track("A"), true, false)
	assert.Equal(t, 0, idx)
	assert.True(t, h.m.IsPlaying(guild))
	require.NotNil(t, h.m.CurrentTrack(guild))
	assert.Equal(t, "A", h.m.CurrentTrack(guild).Title)
	assert.Equal(t, []string{"A"}, h.player.titles())

	h.player.finish()
	assert.Eventually(t, func() bool {
		return h.m.CurrentTrack(guild) == nil && !h.m.IsPlaying(guild)
	}, waitFor, tick)
	assert.Empty(t, h.m.Tracks(guild))
	assert.Zero(t, h.resolver.calls())
}

func TestAutoplayContinuesWithRelatedTrack(t *testing.T) {
	h := newHarness(t, WithAutoplayDefault(true))
	h.resolver.fn = returning(dl.Candidate{ID: "2", Title: "Related", Channel: "Artist", Duration: 200, URL: "url2"})

	h.m.Enqueue(context.Background(), guild, track("A"), true, false)
	h.player.finish()

	assert.Eventually(t, func() bool {
		cur := h.m.CurrentTrack(guild)
		return cur != nil && cur.Title == "Related"
	}, waitFor, tick)

	cur := h.m.CurrentTrack(guild)
	assert.False(t, cur.IsUserRequested)
	assert.Equal(t, "Artist", cur.Artist)
	assert.Equal(t, "url2", cur.URL)
	assert.Equal(t, 200, cur.Duration)
	assert.Contains(t, h.m.AutoplayHistory(guild), "2")
	assert.Equal(t, 1, h.resolver.calls())
	assert.Equal(t, []string{"A", "Related"}, h.player.titles())
}

func TestAutoplayNothingFoundStaysIdle(t *testing.T) {
	h := newHarness(t, WithAutoplayDefault(true))

	h.m.Enqueue(context.Background(), guild, track("A"), true, false)
	h.player.finish()

	assert.Eventually(t, func() bool {
		return !h.m.IsPlaying(guild) && h.resolver.calls() == 2
	}, waitFor, tick)
	assert.Nil(t, h.m.CurrentTrack(guild))
}

func TestPlayNextLandsAfterCurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("current"), true, false)
	assert.Equal(t, 1, h.m.Enqueue(ctx, guild, track("X"), true, false))
	assert.Equal(t, 1, h.m.Enqueue(ctx, guild, track("Y"), true, true))

	assert.Equal(t, []string{"current", "Y", "X"}, titles(h.m.Tracks(guild)))
}

func TestPlayNextWhileIdleAppends(t *testing.T) {
	h := newHarness(t)
	h.player.closed = true // every Play fails, so the guild never starts playing

	idx := h.m.Enqueue(context.Background(), guild, track("A"), true, true)
	assert.Equal(t, 0, idx)
	assert.False(t, h.m.IsPlaying(guild))
}

func TestAutoplayTrackRejectedBehindUserTrack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	idx := h.m.Enqueue(ctx, guild, track("B"), false, false)

	assert.Equal(t, -1, idx)
	assert.Equal(t, []string{"A"}, titles(h.m.Tracks(guild)))
}

func TestUserTrackDropsAutoplayTracks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("auto"), false, false)
	require.Equal(t, "auto", h.m.CurrentTrack(guild).Title)

	h.m.Enqueue(ctx, guild, track("U"), true, false)
	tracks := h.m.Tracks(guild)
	assert.Equal(t, []string{"U"}, titles(tracks))
	assert.True(t, tracks[0].IsUserRequested)

	// the autoplay track keeps playing; its completion must not swallow U
	assert.Equal(t, "auto", h.m.CurrentTrack(guild).Title)
	h.player.finish()
	assert.Eventually(t, func() bool {
		cur := h.m.CurrentTrack(guild)
		return cur != nil && cur.Title == "U"
	}, waitFor, tick)
	assert.Equal(t, []string{"auto", "U"}, h.player.titles())
}

func TestUserTrackAfterAutoplayIsPreloaded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("auto"), false, false)
	h.m.Enqueue(ctx, guild, track("U"), true, false)
	require.Equal(t, "auto", h.m.CurrentTrack(guild).Title)

	assert.Eventually(t, func() bool {
		return contains(h.source.preloadedURLs(), track("U").URL)
	}, waitFor, tick)
}

func TestRejectedAutoplayPickStaysOutOfHistory(t *testing.T) {
	h := newHarness(t, WithAutoplayDefault(true))
	searching := make(chan struct{})
	release := make(chan struct{})
	h.resolver.fn = func(string) ([]dl.Candidate, error) {
		close(searching)
		<-release
		return []dl.Candidate{{ID: "2", Title: "Related"}}, nil
	}
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.player.finish()
	<-searching

	h.m.Enqueue(ctx, guild, track("U"), true, false)
	close(release)

	assert.Eventually(t, func() bool {
		cur := h.m.CurrentTrack(guild)
		return cur != nil && cur.Title == "U"
	}, waitFor, tick)
	assert.Empty(t, h.m.AutoplayHistory(guild))
	assert.Equal(t, []string{"A", "U"}, h.player.titles())
}

func TestToggleAutoplayIsPureFlip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	initial := h.m.AutoplayState(ctx, guild)
	first := h.m.ToggleAutoplay(ctx, guild)
	second := h.m.ToggleAutoplay(ctx, guild)

	assert.Equal(t, !initial, first)
	assert.Equal(t, initial, second)
	assert.Equal(t, initial, h.m.AutoplayState(ctx, guild))
}

func TestAutoplayPreferenceSurvivesStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.True(t, h.m.ToggleAutoplay(ctx, guild))
	stored, found, err := h.store.Autoplay(ctx, guild)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, stored)

	h.m.Stop(guild)
	assert.True(t, h.m.AutoplayState(ctx, guild))
	assert.Empty(t, h.m.ActiveGuilds())
}

func TestFailedTrackIsSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.source.failing[track("B").URL] = true

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, guild, track("B"), true, false)
	h.m.Enqueue(ctx, guild, track("C"), true, false)

	h.player.finish()
	assert.Eventually(t, func() bool {
		cur := h.m.CurrentTrack(guild)
		return cur != nil && cur.Title == "C"
	}, waitFor, tick)
	assert.Equal(t, []string{"A", "C"}, h.player.titles())
	assert.Equal(t, []string{"C"}, titles(h.m.Tracks(guild)))
}

func TestOnlyFailingTracksEndIdle(t *testing.T) {
	h := newHarness(t)
	h.source.failing[track("bad").URL] = true

	h.m.Enqueue(context.Background(), guild, track("bad"), true, false)
	assert.False(t, h.m.IsPlaying(guild))
	assert.Nil(t, h.m.CurrentTrack(guild))
	assert.Empty(t, h.m.Tracks(guild))
}

func TestSkipAdvances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.False(t, h.m.Skip(guild))

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, guild, track("B"), true, false)
	assert.True(t, h.m.Skip(guild))

	assert.Eventually(t, func() bool {
		cur := h.m.CurrentTrack(guild)
		return cur != nil && cur.Title == "B"
	}, waitFor, tick)
}

func TestStopDiscardsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, guild, track("B"), true, false)
	h.m.Stop(guild)

	assert.True(t, h.player.isClosed())
	assert.Empty(t, h.m.ActiveGuilds())
	assert.Nil(t, h.m.CurrentTrack(guild))
	assert.Never(t, func() bool {
		return len(h.m.ActiveGuilds()) > 0 || len(h.player.titles()) > 1
	}, 100*time.Millisecond, tick)
}

func TestStopDuringDownload(t *testing.T) {
	h := newHarness(t)
	h.source.gate = make(chan struct{})

	done := make(chan int)
	go func() {
		done <- h.m.Enqueue(context.Background(), guild, track("A"), true, false)
	}()

	assert.Eventually(t, func() bool { return h.m.IsPlaying(guild) }, waitFor, tick)
	h.m.Stop(guild)
	close(h.source.gate)

	select {
	case idx := <-done:
		assert.Equal(t, 0, idx)
	case <-time.After(waitFor):
		t.Fatal("enqueue did not return")
	}
	assert.Empty(t, h.player.titles())
	assert.Empty(t, h.m.ActiveGuilds())
}

func TestStaleIdleSignalIsIgnored(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, guild, track("B"), true, false)

	s := h.m.lookup(guild)
	s.mu.Lock()
	staleGen := s.gen - 1
	s.mu.Unlock()

	h.m.advance(s, staleGen)
	assert.Equal(t, "A", h.m.CurrentTrack(guild).Title)
	assert.Equal(t, []string{"A", "B"}, titles(h.m.Tracks(guild)))
}

func TestInstantPlayersDrainQueue(t *testing.T) {
	h := newHarness(t)
	h.player.instant = true
	ctx := context.Background()

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, guild, track("B"), true, false)

	assert.Eventually(t, func() bool {
		return len(h.player.titles()) == 2 && !h.m.IsPlaying(guild)
	}, waitFor, tick)
	assert.Equal(t, []string{"A", "B"}, h.player.titles())
	assert.Empty(t, h.m.Tracks(guild))
}

func TestEnqueuePreloadsUpcoming(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C", "D", "E"} {
		h.m.Enqueue(ctx, guild, track(title), true, false)
	}

	want := []string{track("B").URL, track("C").URL, track("D").URL}
	assert.Eventually(t, func() bool {
		got := h.source.preloadedURLs()
		for _, url := range want {
			if !contains(got, url) {
				return false
			}
		}
		return true
	}, waitFor, tick)
	assert.NotContains(t, h.source.preloadedURLs(), track("E").URL)
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.m.Pause(guild), ErrNoPlayer)
	assert.ErrorIs(t, h.m.Resume(guild), ErrNoPlayer)

	h.m.Enqueue(context.Background(), guild, track("A"), true, false)
	require.NoError(t, h.m.Pause(guild))
	assert.True(t, h.player.paused)
	require.NoError(t, h.m.Resume(guild))
	assert.False(t, h.player.paused)
	assert.Equal(t, "A", h.m.CurrentTrack(guild).Title)
}

func TestAttachUsesGivenPlayer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	own := &fakePlayer{}
	h.m.Attach(ctx, guild, own)
	h.m.Enqueue(ctx, guild, track("A"), true, false)

	assert.Equal(t, []string{"A"}, own.titles())
	assert.Empty(t, h.player.titles())
	assert.Zero(t, h.transport.connects)

	replacement := &fakePlayer{}
	h.m.Attach(ctx, guild, replacement)
	assert.True(t, own.isClosed())
}

func TestTrackStartHook(t *testing.T) {
	var started []string
	h := newHarness(t, WithTrackStart(func(_ snowflake.ID, tr cache.Track) {
		started = append(started, tr.Title)
	}))

	h.m.Enqueue(context.Background(), guild, track("A"), true, false)
	assert.Equal(t, []string{"A"}, started)
}

func TestSessionsAreIndependent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	other := snowflake.ID(7)

	h.m.Enqueue(ctx, guild, track("A"), true, false)
	h.m.Enqueue(ctx, other, track("B"), true, false)

	assert.Equal(t, []snowflake.ID{other, guild}, h.m.ActiveGuilds())
	h.m.Stop(guild)
	assert.Equal(t, []snowflake.ID{other}, h.m.ActiveGuilds())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
