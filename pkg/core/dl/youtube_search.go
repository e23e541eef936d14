package dl

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ppalone/ytsearch"
)

// YtSearchResolver searches YouTube through its web results page.
// Results carry no channel or duration, so autoplay falls back to its defaults for them.
type YtSearchResolver struct {
	client *ytsearch.Client
}

// NewYtSearchResolver creates a resolver; a nil httpClient uses the library default.
func NewYtSearchResolver(httpClient *http.Client) *YtSearchResolver {
	return &YtSearchResolver{client: ytsearch.NewClient(httpClient)}
}

// Search implements RelatedTrackResolver.
func (y *YtSearchResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	res, err := y.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	out := make([]Candidate, 0, max(limit, 0))
	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		out = append(out, Candidate{
			ID:    v.VideoID,
			Title: v.Title,
			URL:   WatchURL(v.VideoID),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
