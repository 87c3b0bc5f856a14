package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/evolve"
	"github.com/vovakirdan/flappy-neat/internal/platform/tui"
	"github.com/vovakirdan/flappy-neat/internal/telemetry"
)

var (
	flagGenerations int
	flagPopulation  int
	flagHidden      int
	flagThreshold   int
	flagOutDir      string
	flagWatch       bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Evolve neural networks to fly the bird",
	Long: `Train a population of feedforward networks. Every generation flies one
batch run together; fitness comes from survival, passed pipes and collision
penalties. Training stops once a run exceeds the score threshold or the
generation limit is reached.

With --out, per-generation statistics, eliminations, the effective config
and the winning genome are written to the directory. Generation summaries
are also saved to the database for 'flappy history'.

Examples:
  flappy train
  flappy train --generations 100 --population 30
  flappy train --hidden 4 --out ./runs/hidden4
  flappy train --watch --fps 60`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&flagGenerations, "generations", 0, "Generation limit (0 = from config)")
	trainCmd.Flags().IntVar(&flagPopulation, "population", 0, "Population size (0 = from config)")
	trainCmd.Flags().IntVar(&flagHidden, "hidden", 0, "Hidden neurons, 0 = direct (default from config)")
	trainCmd.Flags().IntVar(&flagThreshold, "threshold", 0, "Score threshold that ends training (default from config)")
	trainCmd.Flags().StringVar(&flagOutDir, "out", "", "Directory for CSV statistics and the winner")
	trainCmd.Flags().BoolVar(&flagWatch, "watch", false, "Show every generation in the terminal")
}

func runTrain(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(config.ModeBatch)
	if err != nil {
		return err
	}
	resolveSeed(&cfg)
	applyTrainFlags(cmd, &cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trainer := evolve.NewTrainer(cfg, logger)

	out, err := telemetry.NewOutputManager(flagOutDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("cannot close output", "err", err)
		}
	}()
	trainer.Output = out

	if store := openStore(logger); store != nil {
		defer store.Close()
		trainer.Store = store
	}
	if flagWatch {
		trainer.Runner = tui.WatchRunner(runtimeConfig(cfg), logger)
	}

	logger.Info("seed", "value", cfg.World.Seed)
	sum, err := trainer.Run(ctx)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	printSummary(sum, out)
	return nil
}

// applyTrainFlags overrides cfg with the training flags the user set.
func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flagGenerations > 0 {
		cfg.Evolution.Generations = flagGenerations
	}
	if flagPopulation > 0 {
		cfg.Population.Size = flagPopulation
	}
	if flags.Changed("hidden") {
		cfg.Evolution.Hidden = flagHidden
	}
	if flags.Changed("threshold") {
		cfg.Scoring.ScoreThreshold = flagThreshold
	}
}

func printSummary(sum evolve.Summary, out *telemetry.OutputManager) {
	fmt.Println()
	fmt.Printf("Session:      %s\n", sum.Session)
	fmt.Printf("Generations:  %s\n", humanize.Comma(int64(sum.Generations)))

	status := "generation limit reached"
	switch {
	case sum.Solved:
		status = "score threshold reached"
	case sum.Interrupted:
		status = "interrupted"
	}
	fmt.Printf("Status:       %s\n", status)

	if sum.Generations == 0 {
		return
	}
	fmt.Printf("Winner:       genome %d from generation %d\n", sum.Winner.ID, sum.WinnerGen)
	fmt.Printf("Fitness:      %.2f\n", sum.Winner.Fitness)
	fmt.Printf("Score:        %d\n", sum.WinnerScore)
	if dir := out.Dir(); dir != "" {
		fmt.Printf("Output:       %s\n", dir)
	}
}
