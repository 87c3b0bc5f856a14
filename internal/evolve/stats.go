package evolve

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/telemetry"
)

// Summarize computes the statistics of one evaluated generation.
func Summarize(session string, generation int, res flappy.Result) telemetry.GenerationStats {
	s := telemetry.GenerationStats{
		Session:    session,
		Generation: generation,
		Population: len(res.Fitness),
		Survivors:  len(res.Fitness) - len(res.Eliminations),
		Score:      res.Score,
		Ticks:      res.Ticks,
		Outcome:    res.State.String(),
	}
	if len(res.Fitness) == 0 {
		return s
	}

	if len(res.Fitness) > 1 {
		s.MeanFitness, s.StdDevFitness = stat.MeanStdDev(res.Fitness, nil)
	} else {
		s.MeanFitness = res.Fitness[0]
	}

	sorted := append([]float64(nil), res.Fitness...)
	sort.Float64s(sorted)
	s.MedianFitness = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.BestFitness = floats.Max(res.Fitness)
	s.BestAgent = floats.MaxIdx(res.Fitness)
	s.WorstFitness = floats.Min(res.Fitness)
	return s
}

// eliminationRows converts a run's eliminations for CSV output.
func eliminationRows(generation int, res flappy.Result) []telemetry.EliminationRow {
	rows := make([]telemetry.EliminationRow, len(res.Eliminations))
	for i, e := range res.Eliminations {
		rows[i] = telemetry.EliminationRow{
			Generation: generation,
			Agent:      int(e.Agent),
			Cause:      e.Cause.String(),
			Tick:       e.Tick,
			Fitness:    e.Fitness,
		}
	}
	return rows
}
