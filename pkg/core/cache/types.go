package cache

import (
	"fmt"
	"time"
)

// Track is a playable item in a guild queue.
// The queue only changes IsUserRequested, and only at enqueue time.
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Duration        int    `json:"duration"`
	Thumbnail       string `json:"thumbnail"`
	RequestedBy     string `json:"requested_by"`
	Artist          string `json:"artist"`
	IsUserRequested bool   `json:"is_user_requested"`
}

// CacheEntry describes one cached audio file.
type CacheEntry struct {
	URL          string
	Filename     string
	Size         int64
	LastAccessed time.Time
	Hits         uint32
	Seq          uint64
}

// Stats summarises cache usage together with the free space of the volume holding it.
type Stats struct {
	FileCount   int
	SizeBytes   int64
	MaxBytes    int64
	PercentUsed float64
	DiskFree    uint64
	DiskTotal   uint64
}

// SizeGB returns the cached size in gigabytes.
func (s Stats) SizeGB() float64 {
	return float64(s.SizeBytes) / (1024 * 1024 * 1024)
}

// FetchError is returned when the download backend fails for a URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
