package pkg

import (
	"context"
	"errors"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/zuchzub/guildtunes/pkg/config"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/db"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
	"github.com/zuchzub/guildtunes/pkg/handlers"
	"github.com/zuchzub/guildtunes/pkg/lang"
	"github.com/zuchzub/guildtunes/pkg/vc"
)

const searchCacheTTL = time.Hour

var (
	_ vc.SettingsStore = (*db.Database)(nil)
	_ vc.SettingsStore = (*db.Memory)(nil)
)

// App holds the wired services of one process.
type App struct {
	Cache    *cache.AudioCache
	Resolver dl.RelatedTrackResolver
	Lookup   *dl.YtDlpResolver
	Manager  *vc.Manager
	Handler  *handlers.Handler

	database *db.Database
}

// Init builds the cache, the resolvers, the settings store and the queue manager from config.Conf.
func Init(ctx context.Context) (*App, error) {
	conf := config.Conf
	if conf == nil {
		return nil, errors.New("configuration not loaded")
	}

	if err := lang.LoadTranslations(); err != nil {
		return nil, err
	}

	ytdlp := dl.NewYtDlpBackend(conf.Proxy, conf.CookiesPath)
	audio, err := cache.NewAudioCache(
		conf.CacheDir,
		conf.MaxCacheBytes(),
		dl.NewRouter(dl.NewHTTPBackend(), ytdlp),
		cache.WithDownloadTimeout(conf.DownloadTimeout),
	)
	if err != nil {
		return nil, err
	}

	lookup := dl.NewYtDlpResolver(ytdlp)
	resolver := dl.NewLimitedResolver(
		dl.ChainResolver{dl.YtMusicResolver{}, dl.NewYtSearchResolver(nil), lookup},
		conf.ResolverRate,
		conf.ResolverBurst,
		searchCacheTTL,
	)

	app := &App{Cache: audio, Resolver: resolver, Lookup: lookup}

	var store vc.SettingsStore = db.NewMemory()
	if conf.MongoUri != "" {
		database, err := db.InitDatabase(ctx, conf.MongoUri, conf.DbName)
		if err != nil {
			return nil, err
		}
		app.database = database
		store = database
	} else {
		gologging.InfoF("MONGO_URI is not set; guild settings are kept in memory.")
	}

	app.Manager = vc.NewManager(
		audio,
		vc.NewAutoplaySelector(resolver, conf.AutoplaySearchLimit),
		vc.NewLocalTransport(conf.PlayerCommand),
		store,
		vc.WithAutoplayDefault(conf.AutoplayDefault),
	)

	app.Handler = &handlers.Handler{
		Manager: app.Manager,
		Search:  resolver,
		Lookup:  lookup,
		Cache:   audio,
		Probe:   audio,
	}
	if conf.SpotifyEnabled() {
		app.Handler.Spotify = dl.NewSpotifyClient(ctx, conf.SpotifyClientID, conf.SpotifyClientSecret)
	}
	return app, nil
}

// Close stops every session, waits for preloads and disconnects the database.
func (a *App) Close() {
	if a.Manager != nil {
		a.Manager.Close()
	}
	if a.database != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.database.Close(ctx); err != nil {
			gologging.WarnF("[DB] Close failed: %v", err)
		}
	}
}
