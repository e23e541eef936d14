package handlers

import "context"

// Stop clears the queue and leaves the voice channel.
func (h *Handler) Stop(_ context.Context, req Request) Reply {
	if !req.InVoice {
		return text(req, "need_voice")
	}

	h.Manager.Stop(req.GuildID)
	return text(req, "stopped")
}
