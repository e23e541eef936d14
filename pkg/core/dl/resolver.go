package dl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"golang.org/x/time/rate"
)

// ErrNoResults is returned by Lookup when a query matches nothing.
var ErrNoResults = errors.New("no results found")

// Candidate is one search result returned by a RelatedTrackResolver.
type Candidate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
}

// RelatedTrackResolver searches a remote catalogue.
// Search returns an empty slice when nothing matches and an error only on transport failure.
type RelatedTrackResolver interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// ChainResolver queries resolvers in order and returns the first non-empty result.
type ChainResolver []RelatedTrackResolver

// Search implements RelatedTrackResolver.
// It fails only when every resolver failed.
func (c ChainResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	var errs []error
	for _, r := range c {
		results, err := r.Search(ctx, query, limit)
		if err != nil {
			gologging.DebugF("[Resolver] %T failed for %q: %v", r, query, err)
			errs = append(errs, err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if len(errs) == len(c) && len(errs) > 0 {
		return nil, fmt.Errorf("all resolvers failed: %w", errors.Join(errs...))
	}
	return []Candidate{}, nil
}

// LimitedResolver rate-limits an inner resolver and caches its results.
type LimitedResolver struct {
	inner   RelatedTrackResolver
	limiter *rate.Limiter
	results *cache.Cache[[]Candidate]
}

// NewLimitedResolver allows perSecond queries per second with the given burst; results live for ttl.
func NewLimitedResolver(inner RelatedTrackResolver, perSecond float64, burst int, ttl time.Duration) *LimitedResolver {
	return &LimitedResolver{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		results: cache.NewCache[[]Candidate](ttl),
	}
}

// Search implements RelatedTrackResolver.
func (l *LimitedResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	key := strconv.Itoa(limit) + "|" + strings.ToLower(strings.TrimSpace(query))
	if cached, ok := l.results.Get(key); ok {
		return cached, nil
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("resolver rate limit: %w", err)
	}

	results, err := l.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		l.results.Set(key, results)
	}
	return results, nil
}

// parseSeconds reads a duration printed as seconds ("200", "200.5") or as a clock ("3:20", "1:02:03").
// Unknown values such as "NA" give 0.
func parseSeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
