package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive launcher",
	Long: `Start an interactive menu to play, watch a named policy fly a full
population, or browse history.

Controls:
  Up/Down   - Navigate
  Enter     - Select
  Tab       - History
  Q         - Quit`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func runMenu(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	manual, err := loadConfig(config.ModeManual)
	if err != nil {
		return err
	}
	batch, err := loadConfig(config.ModeBatch)
	if err != nil {
		return err
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt := runtimeConfig(manual)
	for {
		result, err := tui.RunMenu(rt)
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		if result.Quit {
			return nil
		}
		rt = result.Config

		switch result.Choice {
		case tui.ChoicePlay:
			if err := tui.Play(manual, rt, store, logger); err != nil {
				return fmt.Errorf("menu: %w", err)
			}
		case tui.ChoiceWatch:
			if err := watchPolicy(ctx, batch, result.PolicyID, rt.ScreenW, rt.ScreenH, logger); err != nil {
				return fmt.Errorf("menu: %w", err)
			}
		case tui.ChoiceHistory:
			if store == nil {
				logger.Warn("history needs the database")
				continue
			}
			back, err := tui.RunHistory(store, rt.ScreenW, rt.ScreenH)
			if err != nil {
				return fmt.Errorf("menu: %w", err)
			}
			if !back {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// watchPolicy flies one batch run of a full population of the policy.
func watchPolicy(ctx context.Context, cfg config.Config, id string, w, h int, logger *log.Logger) error {
	resolveSeed(&cfg)
	deciders, err := policyDeciders(id, cfg.World.Seed, cfg.Population.Size)
	if err != nil {
		return err
	}
	s, err := flappy.NewScheduler(cfg, config.ModeBatch, deciders, flappy.WithLogger(logger.WithPrefix("sim")))
	if err != nil {
		return err
	}

	rt := runtimeConfig(cfg)
	rt.ScreenW, rt.ScreenH = w, h
	_, err = tui.Watch(ctx, s, 0, rt, logger)
	return err
}
