package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/snake-rooms/internal/platform/tui"
	"github.com/vovakirdan/snake-rooms/internal/storage"
)

var (
	flagLimit int
	flagPlain bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the leaderboard recorded by the server.

In a terminal this opens an interactive table; with --plain, or when
stdout is not a terminal, the top scores are printed as text.

Examples:
  snakerooms scores
  snakerooms scores --plain --limit 5
  snakerooms scores --db ./scores.db`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of scores to print with --plain")
	scoresCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print plain text instead of the interactive table")
}

func runScores(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.DBPath == "" {
		return errors.New("storage is disabled (storage.db_path is empty)")
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if !flagPlain && term.IsTerminal(fd) {
		width, height, err := term.GetSize(fd)
		if err != nil {
			width, height = 80, 24
		}
		return tui.RunScoreboard(store, width, height)
	}

	return printScores(store, flagLimit)
}

func printScores(store *storage.Store, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	scores, err := store.TopScores(limit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	fmt.Println("High Scores")
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-14s  %-6s  %-10s  %s\n", "Rank", "Player", "Score", "Reason", "Date")
	fmt.Printf("  %-4s  %-14s  %-6s  %-10s  %s\n", "----", "------", "-----", "------", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-14s  %-6d  %-10s  %s\n",
			i+1, entry.PlayerName, entry.Points, entry.Reason, entry.CreatedAt.Format("2006-01-02 15:04"))
	}

	if stats, err := store.Stats(); err == nil {
		fmt.Println()
		fmt.Printf("Runs: %d  Rounds: %d  Best: %d\n", stats.Runs, stats.Rounds, stats.BestScore)
	}
	return nil
}
