package main

import (
	"github.com/alecthomas/kong"

	"github.com/lox/pokerengine/internal/handhistory"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Debug   bool `help:"Enable debug logging"`
	LogJSON bool `name:"log-json" help:"Write structured JSON logs instead of console output"`
}

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Simulate  SimulateCmd      `cmd:"" help:"Run configured tables with built-in bots"`
	Replay    ReplayCmd        `cmd:"" help:"Replay a table's hand history and verify it"`
	Log       LogCmd           `cmd:"" help:"Print a table's hand history as JSON"`
	ExportPHH ExportPHHCmd     `cmd:"export-phh" help:"Export a table's hand history as a PHH session file"`
}

func main() {
	handhistory.Release = "pokerengine " + version

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerengine"),
		kong.Description("Poker table engine with an auditable event log"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
