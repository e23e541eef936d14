package handlers

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

const searchLimit = 5

// Play queues the song named by req.Query: a Spotify track link, a YouTube link or free text.
func (h *Handler) Play(ctx context.Context, req Request) Reply {
	return h.play(ctx, req, false)
}

// PlayNext queues the song right after the one playing.
func (h *Handler) PlayNext(ctx context.Context, req Request) Reply {
	return h.play(ctx, req, true)
}

func (h *Handler) play(ctx context.Context, req Request, next bool) Reply {
	if !req.InVoice {
		return text(req, "need_voice_play")
	}

	track, err := h.resolve(ctx, strings.TrimSpace(req.Query), req.User)
	if err != nil {
		return failure(req, err)
	}

	h.Manager.Enqueue(ctx, req.GuildID, track, true, next)

	tracks := h.Manager.Tracks(req.GuildID)
	current := h.Manager.CurrentTrack(req.GuildID)
	queued := lo.ContainsBy(tracks, func(t cache.Track) bool {
		return t.URL == track.URL
	})
	switch {
	case !queued:
		// the track failed and was skipped, possibly replaced by autoplay
		return text(req, "play_error")
	case current != nil && current.URL == track.URL && len(tracks) == 1:
		return text(req, "now_playing", track.Title)
	case next:
		return text(req, "added_play_next", track.Title)
	default:
		return text(req, "added_to_queue", track.Title, len(tracks))
	}
}

// resolve turns a query into a track.
func (h *Handler) resolve(ctx context.Context, query, user string) (cache.Track, error) {
	switch {
	case query == "":
		return cache.Track{}, dl.ErrNoResults
	case dl.IsSpotifyURL(query):
		return h.resolveSpotify(ctx, query, user)
	case dl.IsDirectAudioURL(query):
		return h.directTrack(ctx, query, user), nil
	case dl.IsYouTubeURL(query):
		c, err := h.Lookup.Lookup(ctx, query)
		if err != nil {
			return cache.Track{}, err
		}
		track := candidateTrack(c, user)
		track.URL = query
		return track, nil
	default:
		c, err := h.searchExplicit(ctx, query)
		if err != nil {
			return cache.Track{}, err
		}
		return candidateTrack(c, user), nil
	}
}

// directTrack names a plain audio file after the last element of its path.
func (h *Handler) directTrack(ctx context.Context, rawURL, user string) cache.Track {
	title := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		if name, err := url.PathUnescape(path.Base(u.Path)); err == nil && name != "" && name != "/" && name != "." {
			title = name
		}
	}

	track := cache.Track{Title: title, URL: rawURL, RequestedBy: user}
	if h.Probe != nil {
		track.Duration = h.Probe.Duration(ctx, rawURL)
	}
	return track
}

func (h *Handler) resolveSpotify(ctx context.Context, query, user string) (cache.Track, error) {
	id, err := dl.SpotifyTrackID(query)
	if err != nil {
		return cache.Track{}, err
	}
	if h.Spotify == nil {
		return cache.Track{}, errSpotifyDisabled
	}

	st, err := h.Spotify.Track(ctx, id)
	if err != nil {
		return cache.Track{}, &spotifyError{err: err}
	}

	results, err := h.Search.Search(ctx, st.Query(), 1)
	if err != nil {
		return cache.Track{}, err
	}
	if len(results) == 0 {
		return cache.Track{}, errSpotifyNotFound
	}

	track := candidateTrack(&results[0], user)
	if track.Artist == "" {
		track.Artist = st.Artist
	}
	return track, nil
}

// searchExplicit searches "<query> explicit" first and prefers explicit titles.
func (h *Handler) searchExplicit(ctx context.Context, query string) (*dl.Candidate, error) {
	results, err := h.Search.Search(ctx, query+" explicit", searchLimit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		if results, err = h.Search.Search(ctx, query, searchLimit); err != nil {
			return nil, err
		}
	}
	if len(results) == 0 {
		return nil, dl.ErrNoResults
	}

	if c, ok := lo.Find(results, func(c dl.Candidate) bool {
		return dl.IsExplicitTitle(c.Title)
	}); ok {
		return &c, nil
	}
	return &results[0], nil
}
