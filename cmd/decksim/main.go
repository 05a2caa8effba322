package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the probability API server"`
	Odds     OddsCmd          `cmd:"" help:"Exact draw odds for a single card"`
	Combo    ComboCmd         `cmd:"" help:"Exact odds of drawing a card combination"`
	Simulate SimulateCmd      `cmd:"" help:"Monte Carlo simulation of game openings"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("decksim"),
		kong.Description("Deck building probability calculator and simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
