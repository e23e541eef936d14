package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/Laky-64/gologging"
)

// FFProbeFormat defines the structure for parsing the format information from ffprobe's JSON output.
type FFProbeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetFileDuration uses ffprobe to determine the duration of a cached audio file.
// It returns the duration in seconds, or 0 if ffprobe is unavailable or the output cannot be parsed.
func GetFileDuration(ctx context.Context, filePath string) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// #nosec G204 - the path comes from the cache directory, not from user input.
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		gologging.WarnF("[AudioCache] ffprobe failed for %s: %v", filePath, err)
		return 0
	}

	return parseProbeDuration(output)
}

// parseProbeDuration extracts whole seconds from ffprobe JSON output.
func parseProbeDuration(output []byte) int {
	var info FFProbeFormat
	if err := json.Unmarshal(output, &info); err != nil {
		gologging.WarnF("[AudioCache] Failed to parse ffprobe's JSON output: %v", err)
		return 0
	}

	var duration float64
	if info.Format.Duration != "" {
		if _, err := fmt.Sscanf(info.Format.Duration, "%f", &duration); err != nil {
			gologging.WarnF("[AudioCache] Could not parse duration format: %v", err)
			return 0
		}
	}

	return int(duration)
}

// Duration returns the length in seconds of the audio behind url, caching it first when needed.
// It returns 0 when the download or the probe fails.
func (c *AudioCache) Duration(ctx context.Context, url string) int {
	if !c.Preload(ctx, url) {
		return 0
	}
	path, ok := c.lookupPath(url)
	if !ok {
		return 0
	}
	return GetFileDuration(ctx, path)
}
