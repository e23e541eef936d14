package vc

import (
	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

// logTrackStart logs the song that started playing in a guild, with its duration and requester.
func logTrackStart(guildID snowflake.ID, song cache.Track) {
	requester := song.RequestedBy
	if !song.IsUserRequested {
		requester = "autoplay"
	}
	gologging.InfoF(
		"[Queue] A song is playing in %s | Title: %s | Duration: %s | Requested by: %s | URL: %s",
		guildID,
		song.Title,
		cache.SecToMin(song.Duration),
		requester,
		song.URL,
	)
}
