package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snake-rooms/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the server would run with, after the config
file, .env and SNAKEROOMS_* environment variables are applied.

Redirect the output to start a custom config:
  snakerooms config > ~/.snakerooms/configs/snakerooms.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
