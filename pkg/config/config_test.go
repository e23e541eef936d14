package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	t.Setenv("CACHE_DIR", dir)
	t.Setenv("COOKIES_URL", "")

	require.NoError(t, LoadConfig())
	assert.Equal(t, dir, Conf.CacheDir)
	assert.Equal(t, float64(10), Conf.CacheMaxSizeGB)
	assert.Equal(t, int64(10)<<30, Conf.MaxCacheBytes())
	assert.Equal(t, 5*time.Minute, Conf.DownloadTimeout)
	assert.Equal(t, 10, Conf.AutoplaySearchLimit)
	assert.False(t, Conf.SpotifyEnabled())
	assert.Equal(t, "ffplay", Conf.PlayerCommand[0])
	assert.DirExists(t, dir)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("CACHE_MAX_SIZE_GB", "0.5")
	t.Setenv("DOWNLOAD_TIMEOUT", "90")
	t.Setenv("AUTOPLAY_DEFAULT", "yes")
	t.Setenv("PLAYER_COMMAND", "mpv --no-video -")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("COOKIES_PATH", "a.txt b.txt")

	require.NoError(t, LoadConfig())
	assert.Equal(t, int64(512)<<20, Conf.MaxCacheBytes())
	assert.Equal(t, 90*time.Second, Conf.DownloadTimeout)
	assert.True(t, Conf.AutoplayDefault)
	assert.Equal(t, []string{"mpv", "--no-video", "-"}, Conf.PlayerCommand)
	assert.True(t, Conf.SpotifyEnabled())
	assert.Equal(t, []string{"a.txt", "b.txt"}, Conf.CookiesPath)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("CACHE_MAX_SIZE_GB", "-1")
	t.Setenv("RESOLVER_RATE", "0")
	t.Setenv("SPOTIFY_CLIENT_ID", "only-id")

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_MAX_SIZE_GB")
	assert.Contains(t, err.Error(), "RESOLVER_RATE")
	assert.Contains(t, err.Error(), "SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	assert.Equal(t, 3, getEnvInt("X_INT", 3))
	t.Setenv("X_DUR", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DUR", 0))
	t.Setenv("X_BOOL", "TRUE")
	assert.True(t, getEnvBool("X_BOOL", false))

	assert.Equal(t, []string{"https://pastebin.com/a", "https://batbin.me/b"},
		processCookieURLs("https://pastebin.com/a, https://batbin.me/b"))
	assert.Empty(t, processCookieURLs(""))
}

func TestCookiePaste(t *testing.T) {
	assert.Equal(t, "https://pastebin.com/raw/abc", rawPasteURL("https://pastebin.com/abc/"))
	assert.Equal(t, "https://batbin.me/raw/xyz", rawPasteURL("https://batbin.me/xyz"))

	dir := t.TempDir()
	path, err := saveContent(dir, "https://batbin.me/xyz", "# Netscape HTTP Cookie File")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xyz.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Netscape HTTP Cookie File", string(data))
}
