package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const defaultDownloadTimeout = 5 * time.Minute

var errEmptyDownload = errors.New("the backend produced no audio data")

// Fetcher downloads the audio behind a URL into w.
// Implementations must stop writing once ctx is done.
type Fetcher interface {
	Fetch(ctx context.Context, url string, w io.Writer) error
}

// Option configures an AudioCache.
type Option func(*AudioCache)

// WithDownloadTimeout bounds every download started by the cache.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *AudioCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces the time source used for access timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *AudioCache) {
		if now != nil {
			c.now = now
		}
	}
}

// AudioCache is a durable, size-bounded store mapping source URLs to cached audio files.
// Concurrent requests for one URL share a single download; unrelated URLs download in parallel.
type AudioCache struct {
	dir      string
	maxBytes int64
	fetcher  Fetcher
	timeout  time.Duration
	now      func() time.Time

	// mu guards entries, seq and every metadata.json write. It is never held across a download.
	mu      sync.Mutex
	entries map[string]*CacheEntry
	seq     uint64

	group singleflight.Group
}

// NewAudioCache opens the cache stored in dir and loads its metadata.
// maxBytes is the ceiling enforced by EvictOldFiles.
func NewAudioCache(dir string, maxBytes int64, fetcher Fetcher, opts ...Option) (*AudioCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create the cache dir: %w", err)
	}

	c := &AudioCache{
		dir:      dir,
		maxBytes: maxBytes,
		fetcher:  fetcher,
		timeout:  defaultDownloadTimeout,
		now:      time.Now,
		entries:  make(map[string]*CacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.loadMetadata()
	gologging.InfoF("[AudioCache] Loaded %d cached entries from %s", len(c.entries), dir)
	return c, nil
}

// Dir returns the cache directory.
func (c *AudioCache) Dir() string {
	return c.dir
}

// Fetch returns a stream over the cached audio for url, downloading it first if needed.
// A download already in flight for url is shared instead of started again.
// It returns a *FetchError when the backend fails; no entry is created in that case.
func (c *AudioCache) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if f, ok := c.openCached(url); ok {
		gologging.DebugF("[AudioCache] Cache hit for %s", url)
		return f, nil
	}

	path, err := c.resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return f, nil
}

// Preload warms the cache for url without touching its access metadata.
// Failures are logged, never returned. It reports whether url is cached afterwards.
func (c *AudioCache) Preload(ctx context.Context, url string) bool {
	if _, ok := c.lookupPath(url); ok {
		return true
	}

	if _, err := c.resolve(ctx, url); err != nil {
		gologging.WarnF("[AudioCache] Preload failed for %s: %v", url, err)
		return false
	}
	return true
}

// Has reports whether url has a cache entry. It does not touch the disk.
func (c *AudioCache) Has(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[url]
	return ok
}

// Path returns the local file of a cached url.
func (c *AudioCache) Path(url string) (string, bool) {
	return c.lookupPath(url)
}

// openCached opens the cached file for url and records the access.
// An entry whose file has disappeared is pruned.
func (c *AudioCache) openCached(url string) (*os.File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}

	f, err := os.Open(filepath.Join(c.dir, entry.Filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.pruneLocked(url)
		} else {
			gologging.WarnF("[AudioCache] Failed to open %s: %v", entry.Filename, err)
		}
		return nil, false
	}

	entry.LastAccessed = c.now()
	entry.Hits++
	c.persistLocked()
	return f, true
}

// lookupPath returns the file of a valid entry without recording an access.
func (c *AudioCache) lookupPath(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}

	path := filepath.Join(c.dir, entry.Filename)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.pruneLocked(url)
		}
		return "", false
	}
	return path, true
}

func (c *AudioCache) pruneLocked(url string) {
	gologging.WarnF("[AudioCache] Cached file for %s is missing, dropping the entry", url)
	delete(c.entries, url)
	c.persistLocked()
}

// resolve waits for the single shared download of url and returns the cached path.
// The caller may stop waiting through ctx; the download itself carries on for the other waiters.
func (c *AudioCache) resolve(ctx context.Context, url string) (string, error) {
	ch := c.group.DoChan(url, func() (any, error) {
		if path, ok := c.lookupPath(url); ok {
			return path, nil
		}
		return c.download(url)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// download streams url into a temporary file, renames it into its content-addressed slot,
// registers the entry and runs an eviction pass.
func (c *AudioCache) download(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	filename := cacheFilename(url)
	finalPath := filepath.Join(c.dir, filename)
	tmpPath := filepath.Join(c.dir, fmt.Sprintf("%s.%s.tmp", strings.TrimSuffix(filename, audioExt), uuid.NewString()))

	gologging.InfoF("[AudioCache] Downloading %s", url)
	size, err := c.writeTemp(ctx, url, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("download timed out after %s: %w", c.timeout, err)
		}
		return "", &FetchError{URL: url, Err: err}
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to rename the temporary file: %w", err)}
	}

	c.mu.Lock()
	c.seq++
	c.entries[url] = &CacheEntry{
		URL:          url,
		Filename:     filename,
		Size:         size,
		LastAccessed: c.now(),
		Seq:          c.seq,
	}
	c.persistLocked()
	c.mu.Unlock()

	gologging.InfoF("[AudioCache] Cached %s (%s)", url, HumanBytes(uint64(size)))
	c.evict(url)
	return finalPath, nil
}

// writeTemp runs the fetcher into path and returns the number of bytes written.
func (c *AudioCache) writeTemp(ctx context.Context, url, path string) (int64, error) {
	// #nosec G304 - path is built from a hash inside the cache directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return 0, fmt.Errorf("failed to create the temporary file: %w", err)
	}

	w := &countingWriter{w: f}
	fetchErr := c.fetcher.Fetch(ctx, url, w)
	closeErr := f.Close()

	switch {
	case fetchErr != nil:
		return 0, fetchErr
	case closeErr != nil:
		return 0, fmt.Errorf("failed to close the temporary file: %w", closeErr)
	case w.n == 0:
		return 0, errEmptyDownload
	}
	return w.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
