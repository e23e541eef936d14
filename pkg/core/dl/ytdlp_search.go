package dl

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

const candidateTemplate = "%(id)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(webpage_url)s"

// YtDlpResolver searches YouTube through yt-dlp's ytsearch extractor.
type YtDlpResolver struct {
	backend *YtDlpBackend
}

// NewYtDlpResolver reuses the proxy and cookie settings of backend.
func NewYtDlpResolver(backend *YtDlpBackend) *YtDlpResolver {
	return &YtDlpResolver{backend: backend}
}

// Search implements RelatedTrackResolver.
func (y *YtDlpResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 1
	}
	args := append(y.backend.extraArgs(), fmt.Sprintf("ytsearch%d:%s", limit, query))

	res, err := y.backend.newCommand().
		FlatPlaylist().
		Print(candidateTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, args...)
	if err != nil {
		return nil, ytdlpError("search", err, res)
	}

	return parseCandidates(res.Stdout), nil
}

// Lookup resolves a URL or a free-text query into a single playable candidate.
func (y *YtDlpResolver) Lookup(ctx context.Context, query string) (*Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		results, err := y.Search(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, ErrNoResults
		}
		return &results[0], nil
	}

	args := append(y.backend.extraArgs(), "--skip-download", NormalizeYouTubeURL(clearQuery(query)))
	res, err := y.backend.newCommand().
		NoPlaylist().
		Print(candidateTemplate).
		Run(ctx, args...)
	if err != nil {
		return nil, ytdlpError("lookup", err, res)
	}

	results := parseCandidates(res.Stdout)
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return &results[0], nil
}

// ytdlpError adds yt-dlp's stderr to err when a result is available.
func ytdlpError(op string, err error, res *ytdlp.Result) error {
	if res != nil {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return fmt.Errorf("yt-dlp %s failed: %w: %s", op, err, stderr)
		}
	}
	return fmt.Errorf("yt-dlp %s failed: %w", op, err)
}

// parseCandidates reads the tab separated lines printed with candidateTemplate.
func parseCandidates(out string) []Candidate {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	results := make([]Candidate, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, "\t")
		if len(parts) < 5 || parts[0] == "" || parts[0] == "NA" {
			continue
		}

		c := Candidate{
			ID:       parts[0],
			Title:    parts[1],
			Channel:  naToEmpty(parts[2]),
			Duration: parseSeconds(parts[3]),
			URL:      naToEmpty(parts[4]),
		}
		if c.URL == "" {
			c.URL = WatchURL(c.ID)
		}
		results = append(results, c)
	}
	return results
}

func naToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}
