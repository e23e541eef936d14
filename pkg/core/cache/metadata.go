package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/google/uuid"
)

// metadataRecord is the on-disk form of a CacheEntry inside metadata.json.
// lastAccessed is stored as Unix milliseconds.
type metadataRecord struct {
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	LastAccessed int64  `json:"lastAccessed"`
	Hits         uint32 `json:"hits"`
	Seq          uint64 `json:"seq,omitempty"`
}

// loadMetadata reads metadata.json into memory.
// A missing file means an empty cache; an unreadable one is logged and ignored.
func (c *AudioCache) loadMetadata() {
	path := filepath.Join(c.dir, metadataFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		gologging.WarnF("[AudioCache] Failed to read %s: %v", path, err)
		return
	}

	var records map[string]metadataRecord
	if err := json.Unmarshal(data, &records); err != nil {
		gologging.WarnF("[AudioCache] %s is corrupt, starting with an empty cache: %v", path, err)
		return
	}

	urls := make([]string, 0, len(records))
	for url := range records {
		urls = append(urls, url)
	}
	// Records written without a sequence sort first, ordered by access time, then URL.
	sort.Slice(urls, func(i, j int) bool {
		a, b := records[urls[i]], records[urls[j]]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if a.LastAccessed != b.LastAccessed {
			return a.LastAccessed < b.LastAccessed
		}
		return urls[i] < urls[j]
	})

	for _, url := range urls {
		rec := records[url]
		c.seq++
		c.entries[url] = &CacheEntry{
			URL:          url,
			Filename:     rec.Filename,
			Size:         rec.Size,
			LastAccessed: time.UnixMilli(rec.LastAccessed),
			Hits:         rec.Hits,
			Seq:          c.seq,
		}
	}
}

// persistLocked writes metadata.json through a temporary file and a rename.
// Failures are logged; the in-memory entries stay authoritative and the next mutation retries.
// c.mu must be held.
func (c *AudioCache) persistLocked() {
	records := make(map[string]metadataRecord, len(c.entries))
	for url, e := range c.entries {
		records[url] = metadataRecord{
			Filename:     e.Filename,
			Size:         e.Size,
			LastAccessed: e.LastAccessed.UnixMilli(),
			Hits:         e.Hits,
			Seq:          e.Seq,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		gologging.ErrorF("[AudioCache] Failed to encode metadata: %v", err)
		return
	}

	final := filepath.Join(c.dir, metadataFile)
	tmp := final + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		gologging.ErrorF("[AudioCache] Failed to persist metadata: %v", err)
		_ = os.Remove(tmp)
		return
	}
	if err := os.Rename(tmp, final); err != nil {
		gologging.ErrorF("[AudioCache] Failed to persist metadata: %v", err)
		_ = os.Remove(tmp)
	}
}
