package telemetry

// GenerationStats holds the summary of one evaluated generation.
type GenerationStats struct {
	Session    string `csv:"-"`
	Generation int    `csv:"generation"`

	Population int `csv:"population"`
	Survivors  int `csv:"survivors"`
	Score      int `csv:"score"`
	Ticks      int `csv:"ticks"`

	// Fitness distribution over the whole population
	BestFitness   float64 `csv:"best_fitness"`
	MeanFitness   float64 `csv:"mean_fitness"`
	StdDevFitness float64 `csv:"stddev_fitness"`
	MedianFitness float64 `csv:"median_fitness"`
	WorstFitness  float64 `csv:"worst_fitness"`
	BestAgent     int     `csv:"best_agent"`

	Outcome string `csv:"outcome"`
}

// EliminationRow is one agent leaving a run.
type EliminationRow struct {
	Generation int     `csv:"generation"`
	Agent      int     `csv:"agent"`
	Cause      string  `csv:"cause"`
	Tick       int     `csv:"tick"`
	Fitness    float64 `csv:"fitness"`
}
