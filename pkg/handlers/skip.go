package handlers

import "context"

// Skip stops the current song so the next one starts.
func (h *Handler) Skip(_ context.Context, req Request) Reply {
	if !req.InVoice {
		return text(req, "need_voice")
	}
	if h.Manager.CurrentTrack(req.GuildID) == nil {
		return text(req, "nothing_playing")
	}

	h.Manager.Skip(req.GuildID)
	return text(req, "skipped")
}
