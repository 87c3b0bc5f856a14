package evolve

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/storage"
	"github.com/vovakirdan/flappy-neat/internal/telemetry"
)

// GenerationStore persists generation summaries. *storage.Store implements it.
type GenerationStore interface {
	SaveGeneration(rec storage.GenerationRecord) (int64, error)
}

// RunFunc evaluates one generation. The default runs the scheduler to
// completion without pacing; the watch UI supplies its own.
type RunFunc func(ctx context.Context, s *flappy.Scheduler, generation int) (flappy.Result, error)

// Summary is the outcome of a training session.
type Summary struct {
	Session     string
	Generations int  // Generations evaluated
	Solved      bool // A generation reached the score threshold
	Interrupted bool
	Winner      Genome
	WinnerGen   int
	WinnerScore int
	History     []telemetry.GenerationStats
}

// Trainer runs generations until the score threshold is reached or the
// generation budget is spent.
type Trainer struct {
	Config  config.Config
	Session string
	Logger  *log.Logger
	Output  *telemetry.OutputManager // Optional
	Store   GenerationStore          // Optional
	Runner  RunFunc                  // Optional
}

// NewTrainer creates a trainer with a fresh session id.
func NewTrainer(cfg config.Config, logger *log.Logger) *Trainer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Trainer{
		Config:  cfg,
		Session: uuid.NewString(),
		Logger:  logger,
	}
}

func runToEnd(ctx context.Context, s *flappy.Scheduler, _ int) (flappy.Result, error) {
	return s.Run(ctx)
}

// Run trains until done. Each generation gets its own pipe seed derived
// from the configured one so runs are reproducible.
func (t *Trainer) Run(ctx context.Context) (Summary, error) {
	cfg := t.Config
	sum := Summary{Session: t.Session}
	if err := cfg.Validate(); err != nil {
		return sum, err
	}
	runner := t.Runner
	if runner == nil {
		runner = runToEnd
	}

	pop, err := NewPopulation(cfg.Population.Size, cfg.Evolution, rand.New(rand.NewSource(cfg.World.Seed)))
	if err != nil {
		return sum, err
	}
	if err := t.Output.WriteConfig(cfg); err != nil {
		t.Logger.Warn("cannot write config", "err", err)
	}

	t.Logger.Info("training started", "session", t.Session, "population", pop.Size(), "generations", cfg.Evolution.Generations)

	for gen := 1; gen <= cfg.Evolution.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			sum.Interrupted = true
			break
		}

		deciders, err := pop.Deciders()
		if err != nil {
			return sum, err
		}
		runCfg := cfg
		runCfg.World.Seed = cfg.World.Seed + int64(gen)
		sched, err := flappy.NewScheduler(runCfg, config.ModeBatch, deciders,
			flappy.WithLogger(t.Logger.WithPrefix("sim")))
		if err != nil {
			return sum, fmt.Errorf("evolve: generation %d: %w", gen, err)
		}

		res, err := runner(ctx, sched, gen)
		if err != nil {
			return sum, fmt.Errorf("evolve: generation %d: %w", gen, err)
		}
		if res.State == flappy.StateManualQuit {
			sum.Interrupted = true
			break
		}
		if err := pop.SetFitness(res.Fitness); err != nil {
			return sum, err
		}

		stats := Summarize(t.Session, gen, res)
		sum.History = append(sum.History, stats)
		sum.Generations = gen
		t.record(stats, res)

		best := pop.Best()
		if gen == 1 || best.Fitness > sum.Winner.Fitness {
			sum.Winner, sum.WinnerGen, sum.WinnerScore = best, gen, res.Score
		}
		if res.State == flappy.StateScoreThresholdReached {
			sum.Solved = true
			sum.Winner, sum.WinnerGen, sum.WinnerScore = best, gen, res.Score
			t.Logger.Info("score threshold reached", "generation", gen, "score", res.Score, "genome", best.ID)
			break
		}
		pop.Next()
	}

	if sum.Generations > 0 {
		w := telemetry.Winner{
			Session:    t.Session,
			Generation: sum.WinnerGen,
			Fitness:    sum.Winner.Fitness,
			Score:      sum.WinnerScore,
			Hidden:     cfg.Evolution.Hidden,
			Genes:      sum.Winner.Genes,
		}
		if err := t.Output.WriteWinner(w); err != nil {
			t.Logger.Warn("cannot write winner", "err", err)
		}
	}
	t.Logger.Info("training finished", "generations", sum.Generations, "solved", sum.Solved, "best", sum.Winner.Fitness)
	return sum, nil
}

// record logs a generation and hands it to the optional sinks. Sink
// failures are logged and do not stop training.
func (t *Trainer) record(stats telemetry.GenerationStats, res flappy.Result) {
	t.Logger.Info("generation",
		"gen", stats.Generation,
		"best", fmt.Sprintf("%.2f", stats.BestFitness),
		"mean", fmt.Sprintf("%.2f", stats.MeanFitness),
		"stddev", fmt.Sprintf("%.2f", stats.StdDevFitness),
		"score", stats.Score,
		"ticks", stats.Ticks,
		"outcome", stats.Outcome,
	)

	if err := t.Output.WriteGeneration(stats); err != nil {
		t.Logger.Warn("cannot write generation", "err", err)
	}
	if err := t.Output.WriteEliminations(eliminationRows(stats.Generation, res)); err != nil {
		t.Logger.Warn("cannot write eliminations", "err", err)
	}
	if t.Store != nil {
		_, err := t.Store.SaveGeneration(storage.GenerationRecord{
			Session:     stats.Session,
			Generation:  stats.Generation,
			Population:  stats.Population,
			Survivors:   stats.Survivors,
			Score:       stats.Score,
			Ticks:       stats.Ticks,
			BestFitness: stats.BestFitness,
			MeanFitness: stats.MeanFitness,
			StdDev:      stats.StdDevFitness,
			Outcome:     stats.Outcome,
		})
		if err != nil {
			t.Logger.Warn("cannot save generation", "err", err)
		}
	}
}
