// Package commands implements the ytdlpd command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// Global carries process streams shared by subcommands.
type Global struct {
	Stdout io.Writer
	Stdin  io.Reader
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"ytdlpd.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP daemon"`
	Normalize NormalizeCmd `cmd:"" help:"Normalize a yt-dlp config file"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file. A missing file yields defaults
// so the daemon and normalizer work without any setup.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.HasCategory(err, errors.CategoryNotFound) {
		slog.Warn("Configuration file not found, using defaults", slog.String("path", path))
		return config.Default(), nil
	}
	return cfg, err
}

// setupLogging replaces the default logger with one configured from the
// monitoring.logging section; verbose forces debug level.
func setupLogging(cfg *config.Config, verbose bool) {
	level := cfg.Monitoring.Logging.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Monitoring.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
