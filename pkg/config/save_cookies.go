package config

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Laky-64/gologging"
)

var tmpDir = filepath.Join(os.TempDir(), "guildtunes-cookies")

var cookieClient = &http.Client{Timeout: 15 * time.Second}

// rawPasteURL maps a Pastebin or Batbin share link onto its raw endpoint.
func rawPasteURL(url string) string {
	parts := strings.Split(strings.Trim(url, "/"), "/")
	id := parts[len(parts)-1]

	if strings.Contains(url, "pastebin.com") {
		return fmt.Sprintf("https://pastebin.com/raw/%s", id)
	}
	return fmt.Sprintf("https://batbin.me/raw/%s", id)
}

// fetchContent downloads the raw content behind a paste link.
func fetchContent(url string) (string, error) {
	rawURL := rawPasteURL(url)

	resp, err := cookieClient.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body from %s: %w", rawURL, err)
	}

	return string(body), nil
}

// saveContent writes a cookie file into dir and returns its path.
func saveContent(dir, url, content string) (string, error) {
	parts := strings.Split(strings.Trim(url, "/"), "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		filename = "file_" + strings.ReplaceAll(strings.Split(strings.ReplaceAll(url, "/", "_"), "?")[0], "#", "")
	}
	filename += ".txt"

	filePath := filepath.Join(dir, filename)
	// #nosec G306
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	return filePath, nil
}

// saveAllCookies downloads all URLs and stores the resulting paths in Conf.CookiesPath.
// Failures are logged and skipped; yt-dlp then runs without those cookies.
func saveAllCookies(urls []string) {
	for _, url := range urls {
		content, err := fetchContent(url)
		if err != nil {
			gologging.WarnF("[Config] Failed to fetch cookies: %v", err)
			continue
		}

		path, err := saveContent(tmpDir, url, content)
		if err != nil {
			gologging.WarnF("[Config] Failed to save cookies: %v", err)
			continue
		}

		Conf.CookiesPath = append(Conf.CookiesPath, path)
	}
}
