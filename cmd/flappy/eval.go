package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/neural"
	"github.com/vovakirdan/flappy-neat/internal/platform/tui"
	"github.com/vovakirdan/flappy-neat/internal/registry"
	"github.com/vovakirdan/flappy-neat/internal/telemetry"
)

var (
	flagWinner    string
	flagCount     int
	flagEvalWatch bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [policy]",
	Short: "Evaluate a named policy or a saved winner",
	Long: `Fly one batch run with --count copies of a decision function and report
the outcome and the fitness of every agent.

The decision function is either a named policy (see 'flappy list') or the
winning network saved by 'flappy train --out'.

Examples:
  flappy eval heuristic
  flappy eval random --count 20 --seed 7
  flappy eval --winner ./runs/first/winner.yaml --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&flagWinner, "winner", "", "Path to a winner.yaml written by train")
	evalCmd.Flags().IntVar(&flagCount, "count", 0, "Number of agents (0 = population size from config)")
	evalCmd.Flags().BoolVar(&flagEvalWatch, "watch", false, "Show the run in the terminal")
}

func runEval(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	if (len(args) == 0) == (flagWinner == "") {
		return errors.New("eval: give either a policy name or --winner")
	}

	cfg, err := loadConfig(config.ModeBatch)
	if err != nil {
		return err
	}
	resolveSeed(&cfg)
	count := flagCount
	if count <= 0 {
		count = cfg.Population.Size
	}

	var deciders []flappy.Decider
	if flagWinner != "" {
		deciders, err = winnerDeciders(flagWinner, count)
	} else {
		deciders, err = policyDeciders(args[0], cfg.World.Seed, count)
	}
	if err != nil {
		return err
	}

	sched, err := flappy.NewScheduler(cfg, config.ModeBatch, deciders, flappy.WithLogger(logger.WithPrefix("sim")))
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := runBatch(ctx, sched, cfg, logger)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	printResult(cfg.World.Seed, res)
	return nil
}

// runBatch runs a batch scheduler, in the terminal when watching.
func runBatch(ctx context.Context, s *flappy.Scheduler, cfg config.Config, logger *log.Logger) (flappy.Result, error) {
	if flagEvalWatch {
		return tui.Watch(ctx, s, 0, runtimeConfig(cfg), logger)
	}
	return s.Run(ctx)
}

// policyDeciders creates count instances of a named policy. Instance i draws
// from seed+i so stateful policies do not move in lockstep.
func policyDeciders(id string, seed int64, count int) ([]flappy.Decider, error) {
	if !registry.Exists(id) {
		return nil, fmt.Errorf("eval: unknown policy %q, run 'flappy list' to see available policies", id)
	}
	out := make([]flappy.Decider, count)
	for i := range out {
		p, err := registry.Create(id, seed+int64(i))
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// winnerDeciders builds count networks from a saved winner.
func winnerDeciders(path string, count int) ([]flappy.Decider, error) {
	w, err := telemetry.ReadWinner(path)
	if err != nil {
		return nil, err
	}
	out := make([]flappy.Decider, count)
	for i := range out {
		n, err := neural.New(w.Genes, w.Hidden)
		if err != nil {
			return nil, fmt.Errorf("eval: %s: %w", path, err)
		}
		out[i] = n
	}
	return out, nil
}

func printResult(seed int64, res flappy.Result) {
	fmt.Println()
	fmt.Printf("Outcome:  %s\n", res.State)
	fmt.Printf("Score:    %d\n", res.Score)
	fmt.Printf("Ticks:    %s\n", humanize.Comma(int64(res.Ticks)))
	fmt.Printf("Seed:     %d\n", seed)
	fmt.Println()

	elim := make(map[flappy.AgentID]flappy.Elimination, len(res.Eliminations))
	for _, e := range res.Eliminations {
		elim[e.Agent] = e
	}

	order := make([]int, len(res.Fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return res.Fitness[order[a]] > res.Fitness[order[b]]
	})

	fmt.Printf("  %-5s  %-9s  %-14s  %s\n", "Agent", "Fitness", "Cause", "Tick")
	fmt.Printf("  %-5s  %-9s  %-14s  %s\n", "-----", "-------", "-----", "----")
	for _, i := range order {
		cause, tick := "survived", "-"
		if e, ok := elim[flappy.AgentID(i)]; ok {
			cause, tick = e.Cause.String(), humanize.Comma(int64(e.Tick))
		}
		fmt.Printf("  %-5d  %-9.2f  %-14s  %s\n", i, res.Fitness[i], cause, tick)
	}
}
