package vc

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
)

// preloader runs background cache warm-ups and keeps track of them so shutdown can wait.
type preloader struct {
	source AudioSource
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// spawn warms every url in its own goroutine. Failures and panics are logged and never reach playback.
func (p *preloader) spawn(ctx context.Context, guildID snowflake.ID, urls []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	for _, url := range urls {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					gologging.ErrorF("[Preload] Guild %s: panic while preloading %s: %v\n%s", guildID, url, r, debug.Stack())
				}
			}()

			if !p.source.Preload(ctx, url) {
				gologging.DebugF("[Preload] Guild %s: %s is not cached", guildID, url)
			}
		}()
	}
}

// close refuses new preloads and blocks until every spawned one returned.
func (p *preloader) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
