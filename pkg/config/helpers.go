package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnvStr retrieves a string from an environment variable or returns a default value.
func getEnvStr(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

// getEnvInt64 retrieves an int64 from an environment variable or returns a default value.
// It returns the default when the variable is unset or not a valid int64.
func getEnvInt64(key string, def int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// getEnvInt retrieves an int from an environment variable or returns a default value.
func getEnvInt(key string, def int) int {
	return int(getEnvInt64(key, int64(def)))
}

// getEnvFloat retrieves a float64 from an environment variable or returns a default value.
// It returns the default when the variable is unset or not a valid number.
func getEnvFloat(key string, def float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}

// getEnvDuration retrieves a duration from an environment variable or returns a default value.
// Plain integers are read as seconds, anything else goes through time.ParseDuration.
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

// getEnvBool retrieves a boolean from an environment variable or returns a default value.
func getEnvBool(key string, def bool) bool {
	val := strings.ToLower(os.Getenv(key))
	if val == "" {
		return def
	}
	return val == "true" || val == "1" || val == "yes"
}

// processCookieURLs splits a comma or space separated list of cookie URLs.
func processCookieURLs(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Fields(strings.ReplaceAll(value, ",", " "))
	var urls []string
	for _, u := range parts {
		if u != "" {
			urls = append(urls, strings.TrimSpace(u))
		}
	}
	return urls
}

// validate checks the configuration and prepares the cache directory.
// It returns an error listing every invalid key.
func (c *BotConfig) validate() error {
	var invalid []string
	if c.CacheDir == "" {
		invalid = append(invalid, "CACHE_DIR")
	}
	if c.CacheMaxSizeGB <= 0 {
		invalid = append(invalid, "CACHE_MAX_SIZE_GB")
	}
	if c.DownloadTimeout <= 0 {
		invalid = append(invalid, "DOWNLOAD_TIMEOUT")
	}
	if c.MongoUri != "" && c.DbName == "" {
		invalid = append(invalid, "DB_NAME")
	}
	if c.AutoplaySearchLimit <= 0 {
		invalid = append(invalid, "AUTOPLAY_SEARCH_LIMIT")
	}
	if c.ResolverRate <= 0 {
		invalid = append(invalid, "RESOLVER_RATE")
	}
	if c.ResolverBurst <= 0 {
		invalid = append(invalid, "RESOLVER_BURST")
	}
	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		invalid = append(invalid, "SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(invalid, ", "))
	}

	if err := os.MkdirAll(c.CacheDir, 0750); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	return nil
}
