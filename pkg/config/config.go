package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/joho/godotenv"
)

// BotConfig holds the configuration for the queue manager and its audio cache.
type BotConfig struct {
	CacheDir            string        // CacheDir is the directory where cached audio and metadata.json live.
	CacheMaxSizeGB      float64       // CacheMaxSizeGB is the cache ceiling in gigabytes.
	DownloadTimeout     time.Duration // DownloadTimeout bounds a single download.
	MongoUri            string        // MongoUri is the MongoDB connection string. Empty keeps settings in memory.
	DbName              string        // DbName is the name of the database.
	Proxy               string        // Proxy is the proxy URL handed to yt-dlp.
	AutoplayDefault     bool          // AutoplayDefault is the autoplay state of guilds without a stored preference.
	AutoplaySearchLimit int           // AutoplaySearchLimit is the number of candidates requested per autoplay search.
	ResolverRate        float64       // ResolverRate is the number of resolver queries allowed per second.
	ResolverBurst       int           // ResolverBurst is the resolver limiter burst size.
	PlayerCommand       []string      // PlayerCommand is the local audio player used by the CLI transport.
	SpotifyClientID     string        // SpotifyClientID enables Spotify track links together with SpotifyClientSecret.
	SpotifyClientSecret string        // SpotifyClientSecret is the Spotify app secret.
	LogLevel            string        // LogLevel is one of debug, info, warn or error.
	CookiesPath         []string      // CookiesPath is a list of paths to cookies files.
	cookiesUrl          []string      // cookiesUrl is a list of URLs to cookies files.
}

// Conf is the global configuration.
var Conf *BotConfig

// LoadConfig loads the configuration from environment variables and sets the global Conf.
// It also validates the configuration and saves cookies if provided.
func LoadConfig() error {
	_ = godotenv.Load()

	Conf = &BotConfig{
		CacheDir:            getEnvStr("CACHE_DIR", ".cache/audio"),
		CacheMaxSizeGB:      getEnvFloat("CACHE_MAX_SIZE_GB", 10),
		DownloadTimeout:     getEnvDuration("DOWNLOAD_TIMEOUT", 5*time.Minute),
		MongoUri:            os.Getenv("MONGO_URI"),
		DbName:              getEnvStr("DB_NAME", "GuildTunes"),
		Proxy:               os.Getenv("PROXY"),
		AutoplayDefault:     getEnvBool("AUTOPLAY_DEFAULT", false),
		AutoplaySearchLimit: getEnvInt("AUTOPLAY_SEARCH_LIMIT", 10),
		ResolverRate:        getEnvFloat("RESOLVER_RATE", 2),
		ResolverBurst:       getEnvInt("RESOLVER_BURST", 5),
		PlayerCommand:       strings.Fields(getEnvStr("PLAYER_COMMAND", "ffplay -nodisp -autoexit -loglevel quiet -")),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		LogLevel:            strings.ToLower(getEnvStr("LOG_LEVEL", "info")),
		cookiesUrl:          processCookieURLs(os.Getenv("COOKIES_URL")),
	}

	if paths := os.Getenv("COOKIES_PATH"); paths != "" {
		Conf.CookiesPath = append(Conf.CookiesPath, strings.Fields(paths)...)
	}

	if err := Conf.validate(); err != nil {
		return err
	}

	if len(Conf.cookiesUrl) > 0 {
		if err := os.MkdirAll(tmpDir, 0750); err != nil {
			return fmt.Errorf("failed to create cookies dir: %w", err)
		}

		gologging.InfoF("Saving cookies...")
		saveAllCookies(Conf.cookiesUrl)
	}
	return nil
}

// MaxCacheBytes returns the cache ceiling in bytes.
func (c *BotConfig) MaxCacheBytes() int64 {
	return int64(c.CacheMaxSizeGB * 1024 * 1024 * 1024)
}

// SpotifyEnabled reports whether both Spotify credentials are set.
func (c *BotConfig) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// ApplyLogLevel sets the gologging level named by LogLevel.
func (c *BotConfig) ApplyLogLevel() {
	switch c.LogLevel {
	case "debug":
		gologging.SetLevel(gologging.DebugLevel)
	case "warn", "warning":
		gologging.SetLevel(gologging.WarnLevel)
	case "error":
		gologging.SetLevel(gologging.ErrorLevel)
	default:
		gologging.SetLevel(gologging.InfoLevel)
	}
}
