package cachectl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/zuchzub/guildtunes/cmd/common"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
)

// Store is the part of the audio cache the subcommands use.
type Store interface {
	Stats() cache.Stats
	Entries() []cache.CacheEntry
	Clear() error
	EvictOldFiles()
	Preload(ctx context.Context, url string) bool
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
	Path(url string) (string, bool)
	Dir() string
}

var _ Store = (*cache.AudioCache)(nil)

type URLParams struct {
	URL string `pos:"true" required:"true" help:"Track URL."`
}

type FetchParams struct {
	URL    string `pos:"true" required:"true" help:"Track URL."`
	Output string `short:"o" optional:"true" help:"Write the audio to this file instead of stdout."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "cache",
		Short: "Inspect and manage the audio cache",
		SubCmds: []*cobra.Command{
			simpleCmd("stats", "Show cache usage", Stats),
			simpleCmd("list", "List cached entries, most recently used first", List),
			simpleCmd("clear", "Delete every cached file", Clear),
			simpleCmd("evict", "Evict least recently used files down to the low-water mark", Evict),
			urlCmd(),
			fetchCmd(),
		},
	}.ToCobra()
}

// withStore wires the application, runs fn and exits with its code.
func withStore(name string, fn func(ctx context.Context, store Store) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app, err := common.Setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache %s: %v\n", name, err)
		stop()
		os.Exit(1)
	}
	code := fn(ctx, app.Cache)
	app.Close()
	stop()
	os.Exit(code)
}

func simpleCmd(use, short string, run func(store Store, stdout, stderr io.Writer) int) *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   use,
		Short: short,
		RunFunc: func(_ *boa.NoParams, cmd *cobra.Command, args []string) {
			withStore(use, func(_ context.Context, store Store) int {
				return run(store, os.Stdout, os.Stderr)
			})
		},
	}.ToCobra()
}

func urlCmd() *cobra.Command {
	return boa.CmdT[URLParams]{
		Use:         "preload",
		Short:       "Download a track into the cache",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *URLParams, cmd *cobra.Command, args []string) {
			withStore("preload", func(ctx context.Context, store Store) int {
				return Preload(ctx, store, params.URL, os.Stdout, os.Stderr)
			})
		},
	}.ToCobra()
}

func fetchCmd() *cobra.Command {
	return boa.CmdT[FetchParams]{
		Use:         "fetch",
		Short:       "Fetch a track through the cache and write its audio out",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *FetchParams, cmd *cobra.Command, args []string) {
			withStore("fetch", func(ctx context.Context, store Store) int {
				return Fetch(ctx, store, params, os.Stdout, os.Stderr)
			})
		},
	}.ToCobra()
}

func Stats(store Store, stdout, _ io.Writer) int {
	s := store.Stats()
	fmt.Fprintf(stdout, "Directory: %s\n", store.Dir())
	fmt.Fprintf(stdout, "Files:     %d\n", s.FileCount)
	fmt.Fprintf(stdout, "Size:      %s of %s (%.1f%%, %.2f GB)\n",
		cache.HumanBytes(uint64(s.SizeBytes)), cache.HumanBytes(uint64(s.MaxBytes)), s.PercentUsed, s.SizeGB())
	if s.DiskTotal > 0 {
		fmt.Fprintf(stdout, "Disk:      %s free of %s\n", cache.HumanBytes(s.DiskFree), cache.HumanBytes(s.DiskTotal))
	}
	return 0
}

func List(store Store, stdout, _ io.Writer) int {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tHITS\tLAST ACCESSED\tURL")
	for _, e := range store.Entries() {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", cache.HumanBytes(uint64(e.Size)), e.Hits, e.LastAccessed.Format(time.DateTime), e.URL)
	}
	_ = w.Flush()
	return 0
}

func Clear(store Store, stdout, stderr io.Writer) int {
	if err := store.Clear(); err != nil {
		fmt.Fprintf(stderr, "cache clear: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Cache cleared.")
	return 0
}

func Evict(store Store, stdout, _ io.Writer) int {
	before := store.Stats()
	store.EvictOldFiles()
	after := store.Stats()
	fmt.Fprintf(stdout, "Evicted %d files (%s).\n",
		before.FileCount-after.FileCount, cache.HumanBytes(uint64(before.SizeBytes-after.SizeBytes)))
	return 0
}

func Preload(ctx context.Context, store Store, url string, stdout, stderr io.Writer) int {
	if !store.Preload(ctx, url) {
		fmt.Fprintf(stderr, "cache preload: %s failed\n", url)
		return 1
	}
	fmt.Fprintf(stdout, "Cached %s\n", url)
	return 0
}

func Fetch(ctx context.Context, store Store, params *FetchParams, stdout, stderr io.Writer) int {
	rc, err := store.Fetch(ctx, params.URL)
	if err != nil {
		fmt.Fprintf(stderr, "cache fetch: %v\n", err)
		return 1
	}
	defer rc.Close()

	out := stdout
	if params.Output != "" {
		f, err := os.Create(params.Output)
		if err != nil {
			fmt.Fprintf(stderr, "cache fetch: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	if _, err := io.Copy(out, rc); err != nil {
		fmt.Fprintf(stderr, "cache fetch: %v\n", err)
		return 1
	}
	if params.Output != "" {
		if path, ok := store.Path(params.URL); ok {
			fmt.Fprintf(stdout, "Wrote %s (cached at %s)\n", params.Output, path)
		} else {
			fmt.Fprintf(stdout, "Wrote %s\n", params.Output)
		}
	}
	return 0
}
