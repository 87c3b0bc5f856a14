package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Fly the bird yourself",
	Long: `Start a manual run. The run ends when the bird hits a pipe, the ground
or the top of the screen. Scores above zero are saved to the database.

Controls:
  Space/Up   - Flap
  P/Esc      - Pause
  R          - Restart (after game over)
  Q/Ctrl+C   - Quit
  Ctrl+S     - Save a screenshot to ~/.flappy/screenshots

Examples:
  flappy play
  flappy play --seed 42
  flappy play --config ./easy.yaml`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(config.ModeManual)
	if err != nil {
		return err
	}

	// Seed 0 lets every run draw a new layout
	rt := runtimeConfig(cfg)

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	if err := tui.Play(cfg, rt, store, logger); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
