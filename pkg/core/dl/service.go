package dl

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

// directAudioExts are path suffixes that are fetched over plain HTTP instead of through yt-dlp.
var directAudioExts = []string{".mp3", ".m4a", ".aac", ".ogg", ".oga", ".opus", ".flac", ".wav", ".webm"}

// Router picks a download backend per URL: plain HTTP for direct audio files, yt-dlp for everything else.
// It satisfies cache.Fetcher.
type Router struct {
	Direct    cache.Fetcher
	Extractor cache.Fetcher
}

var _ cache.Fetcher = (*Router)(nil)

// NewRouter wires the HTTP and yt-dlp backends.
func NewRouter(direct *HTTPBackend, extractor *YtDlpBackend) *Router {
	return &Router{Direct: direct, Extractor: extractor}
}

// Fetch delegates to the backend chosen for rawURL.
func (r *Router) Fetch(ctx context.Context, rawURL string, w io.Writer) error {
	return r.backendFor(rawURL).Fetch(ctx, rawURL, w)
}

func (r *Router) backendFor(rawURL string) cache.Fetcher {
	if r.Direct != nil && IsDirectAudioURL(rawURL) {
		return r.Direct
	}
	return r.Extractor
}

// IsDirectAudioURL reports whether rawURL is an http(s) link whose path ends in a known audio extension.
func IsDirectAudioURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range directAudioExts {
		if ext == e {
			return true
		}
	}
	return false
}
