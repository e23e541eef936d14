package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Laky-64/gologging"
)

const (
	audioExt     = ".audio"
	metadataFile = "metadata.json"
)

// cacheFilename derives the content-addressed file name for a URL.
// The hash covers the URL, not the bytes, so a URL always maps to the same slot.
func cacheFilename(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + audioExt
}

// SecToMin converts a duration in seconds to M:SS or H:MM:SS.
// It returns "0:00" for negative inputs.
func SecToMin(seconds int) string {
	if seconds < 0 {
		gologging.WarnF("SecToMin received a negative duration: %d", seconds)
		return "0:00"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// HumanBytes converts a byte count to a human-readable string.
func HumanBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
