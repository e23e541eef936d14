package common

import (
	"context"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg"
	"github.com/zuchzub/guildtunes/pkg/config"
)

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// Setup loads the configuration and wires the application.
func Setup(ctx context.Context) (*pkg.App, error) {
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	config.Conf.ApplyLogLevel()
	return pkg.Init(ctx)
}

// ParseGuild reads a guild id flag.
func ParseGuild(s string) (snowflake.ID, error) {
	return snowflake.Parse(s)
}
