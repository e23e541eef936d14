package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Laky-64/gologging"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/disk"
)

// evictRatio is the fraction of the ceiling an eviction pass shrinks the cache to.
const evictRatio = 0.8

// EvictOldFiles removes least recently accessed entries while the cache is above its ceiling,
// until it is at or below 80% of it. Entries with equal access times go in insertion order.
// A file that cannot be deleted is logged and skipped.
//
// The pass that follows a download never removes the entry just downloaded, so a single entry
// larger than 80% of the ceiling leaves the cache above the target until the next pass.
func (c *AudioCache) EvictOldFiles() {
	c.evict("")
}

// evict runs an eviction pass that never removes the entry for keep.
func (c *AudioCache) evict(keep string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.totalSizeLocked()
	if total <= c.maxBytes {
		return
	}

	target := int64(float64(c.maxBytes) * evictRatio)
	candidates := lo.Values(c.entries)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.LastAccessed.Equal(b.LastAccessed) {
			return a.LastAccessed.Before(b.LastAccessed)
		}
		return a.Seq < b.Seq
	})

	removed := 0
	freed := int64(0)
	for _, e := range candidates {
		if total <= target {
			break
		}
		if e.URL == keep {
			continue
		}

		err := os.Remove(filepath.Join(c.dir, e.Filename))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			gologging.ErrorF("[AudioCache] Failed to evict %s: %v", e.Filename, err)
			continue
		}

		delete(c.entries, e.URL)
		total -= e.Size
		freed += e.Size
		removed++
	}

	if removed > 0 {
		c.persistLocked()
		gologging.InfoF("[AudioCache] Evicted %d files, freed %s", removed, HumanBytes(uint64(freed)))
	}
}

// Clear deletes every file in the cache directory except metadata.json and resets the metadata.
func (c *AudioCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read the cache dir: %w", err)
	}

	var errs []error
	deleted := 0
	for _, de := range dirEntries {
		if de.IsDir() || de.Name() == metadataFile {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		deleted++
	}

	c.entries = make(map[string]*CacheEntry)
	c.persistLocked()
	gologging.InfoF("[AudioCache] Cleared %d files", deleted)
	return errors.Join(errs...)
}

// Stats reports the number of entries, their total size and the state of the underlying volume.
func (c *AudioCache) Stats() Stats {
	c.mu.Lock()
	count := len(c.entries)
	size := c.totalSizeLocked()
	c.mu.Unlock()

	s := Stats{
		FileCount: count,
		SizeBytes: size,
		MaxBytes:  c.maxBytes,
	}
	if c.maxBytes > 0 {
		s.PercentUsed = float64(size) / float64(c.maxBytes) * 100
	}

	usage, err := disk.Usage(c.dir)
	if err != nil {
		gologging.DebugF("[AudioCache] Failed to read disk usage for %s: %v", c.dir, err)
		return s
	}
	s.DiskFree = usage.Free
	s.DiskTotal = usage.Total
	return s
}

// Entries returns a snapshot of all entries, most recently accessed first.
func (c *AudioCache) Entries() []CacheEntry {
	c.mu.Lock()
	out := lo.Map(lo.Values(c.entries), func(e *CacheEntry, _ int) CacheEntry {
		return *e
	})
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAccessed.Equal(out[j].LastAccessed) {
			return out[i].LastAccessed.After(out[j].LastAccessed)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (c *AudioCache) totalSizeLocked() int64 {
	return lo.SumBy(lo.Values(c.entries), func(e *CacheEntry) int64 {
		return e.Size
	})
}
