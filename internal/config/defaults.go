package config

import (
	_ "embed"
)

//go:embed defaults/manual.yaml
var defaultManualYAML []byte

//go:embed defaults/batch.yaml
var defaultBatchYAML []byte

// Default returns the built-in configuration for a mode. It mirrors the
// embedded YAML and is used when the embedded copy cannot be parsed.
func Default(mode Mode) Config {
	cfg := Config{
		World: WorldConfig{
			Width:      500,
			Height:     800,
			GroundY:    730,
			StripWidth: 672,
			TickRate:   30,
		},
		Agent: AgentConfig{
			X:                230,
			Y:                350,
			Width:            68,
			Height:           48,
			JumpImpulse:      -11.5,
			Acceleration:     2.0,
			TerminalVelocity: 17,
			UpwardBoost:      2,
			MaxRotation:      25,
			RotationVelocity: 20,
			MinRotation:      -90,
			TiltMargin:       50,
			AnimationTicks:   5,
		},
		Obstacles: ObstacleConfig{
			SpawnX:    600,
			Velocity:  10,
			Gap:       200,
			GapMin:    40,
			GapMax:    450,
			Width:     104,
			Height:    640,
			LipHeight: 24,
			LipInset:  4,
		},
		Scoring: ScoringConfig{
			SurvivalReward:    0.1,
			PassReward:        5,
			CollisionPenalty:  1,
			ScoreThreshold:    50,
			DecisionThreshold: 0.5,
		},
		Population: PopulationConfig{
			Size: 10,
		},
		Evolution: EvolutionConfig{
			Generations:    50,
			Elite:          2,
			TournamentSize: 3,
			MutationRate:   0.3,
			MutationStd:    0.5,
			Hidden:         4,
		},
	}

	if mode == ModeManual {
		cfg.Agent.JumpImpulse = -10.5
		cfg.Agent.Acceleration = 1.5
		cfg.Agent.TerminalVelocity = 16
		cfg.Obstacles.SpawnX = 650
		cfg.Obstacles.Velocity = 5
		cfg.Population.Size = 1
		cfg.Evolution.Elite = 1
	}
	return cfg
}

// DefaultYAML returns the embedded default YAML for a mode.
func DefaultYAML(mode Mode) []byte {
	switch mode {
	case ModeManual:
		return defaultManualYAML
	case ModeBatch:
		return defaultBatchYAML
	default:
		return nil
	}
}
