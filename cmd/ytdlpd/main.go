package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/ytdlpd/cmd/ytdlpd/commands"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("ytdlpd"),
		kong.Description("REST front-end for yt-dlp with config file normalization."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Stdout: os.Stdout, Stdin: os.Stdin}
	err := parser.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
