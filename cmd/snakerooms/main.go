// snakerooms is an authoritative multiplayer snake server.
//
// Usage:
//
//	snakerooms serve          - Run the websocket server (and optionally the SSH dashboard)
//	snakerooms scores         - Show the leaderboard
//	snakerooms config         - Print the effective configuration
//
// Global flags:
//
//	--config <path> - Path to a config YAML (default: search the usual locations)
//	--db <path>     - Override storage.db_path; an empty value disables storage
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-rooms/internal/config"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snakerooms",
	Short: "Snake Rooms - multiplayer snake server",
	Long: `Snake Rooms hosts multiplayer snake games for browser clients.
Players create or join rooms over a websocket, mark themselves ready
and play on a shared board simulated by the server.

Available commands:
  serve    - Start the game server
  scores   - View high scores
  config   - Print the effective configuration

Examples:
  snakerooms serve
  snakerooms serve --http :8080 --ssh :2222
  snakerooms scores --limit 20
  snakerooms config --config ./configs/snakerooms.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the configuration and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.DBPath = flagDBPath
	}
	return cfg, nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "snakerooms",
	})
	if level == "" {
		return logger
	}
	if lvl, err := log.ParseLevel(strings.ToLower(level)); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}
