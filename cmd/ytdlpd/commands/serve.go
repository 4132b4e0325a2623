package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/daemon"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host string `help:"Override http.host"`
	Port int    `short:"p" help:"Override http.port"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	setupLogging(cfg, root.Verbose)

	if s.Host != "" {
		cfg.HTTP.Host = s.Host
	}
	if s.Port != 0 {
		cfg.HTTP.Port = s.Port
	}
	return RunDaemon(cfg)
}

// RunDaemon starts the daemon and blocks until SIGINT or SIGTERM.
func RunDaemon(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errChan:
		if runErr != nil {
			runErr = fmt.Errorf("daemon error: %w", runErr)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
