package search

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/zuchzub/guildtunes/cmd/common"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/core/dl"
)

type Params struct {
	Query []string `pos:"true" required:"true" help:"Search terms."`
	Limit int      `short:"n" optional:"true" help:"Maximum number of results." default:"10"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "search",
		Short:       "Search the configured resolvers",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := common.Setup(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "search: %v\n", err)
				os.Exit(1)
			}

			code := Run(ctx, app.Resolver, params, os.Stdout, os.Stderr)
			app.Close()
			stop()
			os.Exit(code)
		},
	}.ToCobra()
}

func Run(ctx context.Context, resolver dl.RelatedTrackResolver, params *Params, stdout, stderr io.Writer) int {
	query := strings.Join(params.Query, " ")
	results, err := resolver.Search(ctx, query, params.Limit)
	if err != nil {
		fmt.Fprintf(stderr, "search: %v\n", err)
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintf(stderr, "search: no results for %q\n", query)
		return 1
	}

	for i, c := range results {
		url := c.URL
		if url == "" {
			url = dl.WatchURL(c.ID)
		}
		fmt.Fprintf(stdout, "%2d. %s [%s] %s\n    %s\n", i+1, c.Title, cache.SecToMin(c.Duration), c.Channel, url)
	}
	return 0
}
