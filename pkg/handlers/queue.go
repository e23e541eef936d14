package handlers

import (
	"context"
	"strings"

	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/lang"
)

const queuePageSize = 10

// Queue shows the playing song and what comes next.
func (h *Handler) Queue(ctx context.Context, req Request) Reply {
	current := h.Manager.CurrentTrack(req.GuildID)
	tracks := h.Manager.Tracks(req.GuildID)
	autoplay := h.Manager.AutoplayState(ctx, req.GuildID)

	if current == nil && len(tracks) == 0 {
		msg := lang.GetString(req.Lang, "queue_empty")
		if autoplay {
			msg += lang.GetString(req.Lang, "queue_empty_autoplay")
		}
		return Reply{Text: msg}
	}

	embed := &Embed{Title: lang.GetString(req.Lang, "queue_title")}
	if current != nil {
		tag := ""
		if !current.IsUserRequested {
			tag = lang.GetString(req.Lang, "queue_autoplay_tag")
		}
		embed.Fields = append(embed.Fields, Field{
			Name:  lang.GetString(req.Lang, "queue_now_playing"),
			Value: lang.Format(req.Lang, "queue_now_playing_value", current.Title, tag, requester(req, *current)),
		})
	}

	upcoming := tracks
	if current != nil && len(tracks) > 0 && tracks[0] == *current {
		upcoming = tracks[1:]
	}
	if len(upcoming) > 0 {
		lines := make([]string, 0, min(len(upcoming), queuePageSize))
		for i, t := range upcoming[:min(len(upcoming), queuePageSize)] {
			mark := ""
			if !t.IsUserRequested {
				mark = lang.GetString(req.Lang, "queue_autoplay_mark")
			}
			lines = append(lines, lang.Format(req.Lang, "queue_entry", i+1, t.Title, mark))
		}
		embed.Fields = append(embed.Fields, Field{
			Name:  lang.Format(req.Lang, "queue_up_next", len(upcoming)),
			Value: strings.Join(lines, "\n"),
		})
		if len(upcoming) > queuePageSize {
			embed.Footer = lang.Format(req.Lang, "queue_more", len(upcoming)-queuePageSize)
		}
	}

	if autoplay {
		embed.Description = lang.GetString(req.Lang, "queue_autoplay_on")
	}
	return Reply{Embed: embed}
}

// NowPlaying describes the playing song.
func (h *Handler) NowPlaying(_ context.Context, req Request) Reply {
	current := h.Manager.CurrentTrack(req.GuildID)
	if current == nil {
		return text(req, "nothing_playing")
	}
	return Reply{Embed: nowPlayingEmbed(req, *current)}
}

func nowPlayingEmbed(req Request, t cache.Track) *Embed {
	embed := &Embed{
		Title:       lang.GetString(req.Lang, "np_title"),
		Description: lang.Format(req.Lang, "np_track", t.Title),
		Thumbnail:   t.Thumbnail,
	}
	if t.Duration > 0 {
		embed.Fields = append(embed.Fields, Field{
			Name:   lang.GetString(req.Lang, "np_duration"),
			Value:  cache.SecToMin(t.Duration),
			Inline: true,
		})
	}
	switch {
	case t.RequestedBy != "":
		embed.Fields = append(embed.Fields, Field{
			Name:   lang.GetString(req.Lang, "np_requested_by"),
			Value:  t.RequestedBy,
			Inline: true,
		})
	case !t.IsUserRequested:
		embed.Fields = append(embed.Fields, Field{
			Name:   lang.GetString(req.Lang, "np_source"),
			Value:  lang.GetString(req.Lang, "np_autoplay"),
			Inline: true,
		})
	}
	return embed
}

// Autoplay flips the guild's autoplay setting.
func (h *Handler) Autoplay(ctx context.Context, req Request) Reply {
	key := "autoplay_disabled"
	if h.Manager.ToggleAutoplay(ctx, req.GuildID) {
		key = "autoplay_enabled"
	}
	reply := text(req, key)
	reply.Ephemeral = true
	return reply
}
