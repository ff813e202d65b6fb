package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-rooms/internal/config"
	"github.com/vovakirdan/snake-rooms/internal/gateway"
	"github.com/vovakirdan/snake-rooms/internal/multiplayer"
	"github.com/vovakirdan/snake-rooms/internal/platform/tui"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var (
	flagHTTPAddr string
	flagSSHAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the websocket game server.

Browser clients connect to /ws; ?codec=msgpack switches game updates to
binary MessagePack frames. A read-only HTTP API is served under /v1.

With --ssh (or ssh.enabled in the config) an operator dashboard of the
live rooms is also served over SSH:
  ssh localhost -p 23234

Examples:
  snakerooms serve                       # Listen on the configured address
  snakerooms serve --http :8080          # Override server.http_addr
  snakerooms serve --ssh :2222           # Also serve the SSH dashboard
  snakerooms serve --db ""               # Run without score history`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/websocket address (host:port), overrides config")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "Serve the SSH dashboard on this address (host:port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagHTTPAddr != "" {
		cfg.Server.HTTPAddr = flagHTTPAddr
	}
	if flagSSHAddr != "" {
		cfg.SSH.Enabled = true
		cfg.SSH.Addr = flagSSHAddr
	}

	logger := newLogger(cfg.Log.Level)
	game := cfg.Game.Runtime()

	var store *storage.Store
	if cfg.Storage.DBPath != "" {
		store, err = storage.Open(cfg.Storage.DBPath)
		if err != nil {
			// Continue without storage
			logger.Warn("could not open scores database", "path", cfg.Storage.DBPath, "err", err)
			store = nil
		}
	}

	coord := multiplayer.NewCoordinator(multiplayer.CoordinatorConfig{
		Game:          game,
		IdleTimeout:   cfg.Rooms.IdleTimeout,
		CleanupPeriod: cfg.Rooms.CleanupPeriod,
	}, multiplayer.NewSessionRegistry(), logger.WithPrefix("rooms"))

	// Interfaces stay nil when storage is off so consumers can tell.
	var (
		apiScores  gateway.ScoreSource
		dashScores tui.ScoreSource
	)
	if store != nil {
		coord.SetResultSaver(store)
		apiScores = store
		dashScores = store
	}
	coord.Start()

	srv := gateway.New(gateway.OptionsFromConfig(cfg.Server), coord, apiScores, logger.WithPrefix("gateway"))

	var sshSrv *tui.SSHServer
	if cfg.SSH.Enabled {
		sshSrv, err = tui.NewSSHServer(cfg.SSH, game, coord.Rooms(), dashScores, logger.WithPrefix("ssh"))
		if err != nil {
			coord.Stop()
			closeStore(store, logger)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if sshSrv != nil {
		go func() {
			if err := sshSrv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("ssh server: %w", err)
			}
		}()
	}

	logger.Info("server ready",
		"http", cfg.Server.HTTPAddr,
		"ssh", sshAddr(cfg.SSH),
		"tick_rate", game.TickRate,
		"storage", store != nil,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case runErr = <-errCh:
		logger.Error("server failed", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if sshSrv != nil {
		if err := sshSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	coord.Stop()
	closeStore(store, logger)

	if runErr != nil {
		return runErr
	}
	return errors.Join(errs...)
}

func closeStore(store *storage.Store, logger *log.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("closing scores database", "err", err)
	}
}

func sshAddr(c config.SSHConfig) string {
	if !c.Enabled {
		return "off"
	}
	return c.Addr
}
