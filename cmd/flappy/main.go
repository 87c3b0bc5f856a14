// flappy is a terminal flappy-bird simulation that can be played by hand or
// used as the evaluation harness for evolved decision functions.
//
// Usage:
//
//	flappy play                - Fly the bird yourself
//	flappy train               - Evolve a population of neural networks
//	flappy eval <policy>       - Evaluate a named policy or a saved winner
//	flappy list                - List named policies
//	flappy history [session]   - Show high scores and training sessions
//	flappy config [mode]       - Print or write the default configuration
//	flappy menu                - Start menu to pick interactively
//
// Global flags:
//
//	--config <path> - Run parameters YAML (default: search ~/.flappy/configs, ./configs)
//	--fps <rate>    - Display tick rate (0 = from config)
//	--seed <value>  - Obstacle RNG seed (0 = from config, else time based)
//	--db <path>     - Database path (default: ~/.flappy/flappy.db)
//	--verbose       - Debug logging
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/core"
	// Import policies to register them
	_ "github.com/vovakirdan/flappy-neat/internal/policy"
	"github.com/vovakirdan/flappy-neat/internal/storage"
)

var (
	// Global flags
	flagConfig  string
	flagFPS     int
	flagSeed    int64
	flagDBPath  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappy",
	Short: "Flappy - a flappy-bird simulation for people and neural networks",
	Long: `Flappy is a terminal flappy-bird simulation. Fly the bird yourself,
or train a population of small neural networks to fly it for you.

Available commands:
  play     - Fly the bird with the keyboard
  train    - Evolve neural networks, one run per generation
  eval     - Evaluate a named policy or a saved winner
  list     - Show all named policies
  history  - View high scores and training sessions
  config   - Print or write the default configuration
  menu     - Interactive launcher

Examples:
  flappy play
  flappy train --generations 30 --out ./runs/first
  flappy train --watch
  flappy eval heuristic --count 10
  flappy eval --winner ./runs/first/winner.yaml --watch
  flappy history`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to run parameters YAML")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Display tick rate (0 = from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Obstacle RNG seed (0 = from config, else time based)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.flappy/flappy.db", "Path to database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(menuCmd)
}

// newLogger builds the logger shared by every command.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "flappy",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadConfig loads the run parameters for mode and applies global overrides.
func loadConfig(mode config.Mode) (config.Config, error) {
	cfg, err := config.Load(mode, flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagSeed != 0 {
		cfg.World.Seed = flagSeed
	}
	if flagFPS > 0 {
		cfg.World.TickRate = flagFPS
	}
	return cfg, nil
}

// resolveSeed replaces a zero seed with a time based one so the run can be
// reproduced from the logged value.
func resolveSeed(cfg *config.Config) {
	if cfg.World.Seed == 0 {
		cfg.World.Seed = time.Now().UnixNano()
	}
}

// runtimeConfig describes the current terminal for the TUI.
func runtimeConfig(cfg config.Config) core.RuntimeConfig {
	rt := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		rt.ScreenW = w
		rt.ScreenH = h
	}
	rt.TickRate = cfg.World.TickRate
	rt.Seed = cfg.World.Seed
	return rt
}

// openStore opens the database, or returns nil with a warning so that
// commands keep working without persistence.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open database, continuing without it", "path", flagDBPath, "err", err)
		return nil
	}
	return store
}
