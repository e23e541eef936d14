package vc

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

func TestHistoryKeepsNewest(t *testing.T) {
	h := NewHistory(historyLimit)
	for i := range 60 {
		h.Push(strconv.Itoa(i))
	}

	ids := h.Snapshot()
	assert.Len(t, ids, historyLimit)
	assert.Equal(t, "10", ids[0])
	assert.Equal(t, "59", ids[len(ids)-1])
	assert.False(t, h.Contains("9"))
	assert.True(t, h.Contains("10"))

	h.Reset()
	assert.Empty(t, h.Snapshot())
}

func newTrack(title string) *cache.Track {
	return &cache.Track{Title: title, URL: "u/" + title}
}

func TestEnqueueLockedAutoplayOnlyIntoEmptyQueue(t *testing.T) {
	s := newSession(guild, false)

	assert.Equal(t, 0, s.enqueueLocked(newTrack("auto"), false, false))
	assert.Equal(t, -1, s.enqueueLocked(newTrack("auto2"), false, false))
	assert.Len(t, s.tracks, 1)
}

func TestEnqueueLockedPlayNextWithDroppedCurrent(t *testing.T) {
	s := newSession(guild, false)
	auto := newTrack("auto")
	s.enqueueLocked(auto, false, false)
	s.current = auto
	s.playing = true

	// the playing autoplay track leaves the queue, so "next" is the front
	assert.Equal(t, 0, s.enqueueLocked(newTrack("U"), true, true))
	assert.Equal(t, 1, s.enqueueLocked(newTrack("V"), true, false))
	assert.Equal(t, 0, s.enqueueLocked(newTrack("W"), true, true))
	assert.Equal(t, []string{"W", "U", "V"}, titles(s.snapshotLocked()))
}

func TestPreloadTargets(t *testing.T) {
	s := newSession(guild, false)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		s.enqueueLocked(newTrack(title), true, false)
	}

	assert.Equal(t, []string{"u/a", "u/b", "u/c"}, s.preloadTargetsLocked())

	s.playing = true
	s.current = s.tracks[0]
	assert.Equal(t, []string{"u/b", "u/c", "u/d"}, s.preloadTargetsLocked())

	s.tracks = s.tracks[:1]
	assert.Nil(t, s.preloadTargetsLocked())
}

func TestPreloadTargetsWhenCurrentLeftTheQueue(t *testing.T) {
	s := newSession(guild, false)
	auto := newTrack("auto")
	s.enqueueLocked(auto, false, false)
	s.current = auto
	s.playing = true

	s.enqueueLocked(newTrack("U"), true, false)
	s.enqueueLocked(newTrack("V"), true, false)
	assert.Equal(t, []string{"u/U", "u/V"}, s.preloadTargetsLocked())
}

func TestPopFinishedOnlyPopsCurrent(t *testing.T) {
	s := newSession(guild, false)
	a, b := newTrack("a"), newTrack("b")
	s.enqueueLocked(a, true, false)
	s.enqueueLocked(b, true, false)

	s.current = newTrack("other")
	s.popFinishedLocked()
	assert.Len(t, s.tracks, 2)

	s.current = a
	s.popFinishedLocked()
	assert.Equal(t, []string{"b"}, titles(s.snapshotLocked()))
}
