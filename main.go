package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/zuchzub/guildtunes/cmd/cachectl"
	"github.com/zuchzub/guildtunes/cmd/play"
	"github.com/zuchzub/guildtunes/cmd/search"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "guildtunes",
		Short:   "Per-guild music queues backed by a disk audio cache",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			play.Cmd(),
			search.Cmd(),
			cachectl.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}
	if bi.Main.Version == "" {
		return "unknown-(no version)"
	}
	return bi.Main.Version
}
