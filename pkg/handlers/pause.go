package handlers

import (
	"context"
	"errors"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/vc"
)

// Pause pauses the current song.
func (h *Handler) Pause(_ context.Context, req Request) Reply {
	return h.toggle(req, h.Manager.Pause, "paused")
}

// Resume resumes a paused song.
func (h *Handler) Resume(_ context.Context, req Request) Reply {
	return h.toggle(req, h.Manager.Resume, "resumed")
}

func (h *Handler) toggle(req Request, action func(snowflake.ID) error, okKey string) Reply {
	if !req.InVoice {
		return text(req, "need_voice")
	}
	if h.Manager.CurrentTrack(req.GuildID) == nil {
		return text(req, "nothing_playing")
	}

	if err := action(req.GuildID); err != nil {
		if errors.Is(err, vc.ErrNoPlayer) {
			return text(req, "nothing_playing")
		}
		gologging.ErrorF("[Handlers] Guild %s: %s failed: %v", req.GuildID, okKey, err)
		return text(req, "command_error")
	}
	return text(req, okKey)
}
