// Package config provides YAML-based run parameters for the flappy
// simulation: world geometry, agent physics, obstacle layout, fitness
// scoring, and population/evolution settings.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects the run variant a configuration is tuned for.
type Mode string

const (
	ModeManual Mode = "manual" // single agent driven by keyboard input
	ModeBatch  Mode = "batch"  // N agents driven by evolved decision functions
)

// ParseMode converts a CLI string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeManual, ModeBatch:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("config: unknown mode %q (expected manual or batch)", s)
	}
}

// Config contains every run parameter.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Agent      AgentConfig      `yaml:"agent"`
	Obstacles  ObstacleConfig   `yaml:"obstacles"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Population PopulationConfig `yaml:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
}

// WorldConfig defines the visible area and the scrolling ground strip.
type WorldConfig struct {
	Width      int   `yaml:"width"`
	Height     int   `yaml:"height"`
	GroundY    int   `yaml:"ground_y"`    // Ground line; agents touching it are eliminated
	StripWidth int   `yaml:"strip_width"` // Width of one ground segment
	TickRate   int   `yaml:"tick_rate"`   // Logical ticks per second, display throttle only
	Seed       int64 `yaml:"seed"`        // Obstacle RNG seed, 0 = time based
}

// AgentConfig defines the bird's spawn point, silhouette and physics.
type AgentConfig struct {
	X                int     `yaml:"x"`
	Y                float64 `yaml:"y"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	JumpImpulse      float64 `yaml:"jump_impulse"`      // Velocity set by a jump (negative = up)
	Acceleration     float64 `yaml:"acceleration"`      // Coefficient of t^2
	TerminalVelocity float64 `yaml:"terminal_velocity"` // Max downward displacement per tick
	UpwardBoost      float64 `yaml:"upward_boost"`      // Extra upward pixels while rising
	MaxRotation      float64 `yaml:"max_rotation"`      // Nose-up tilt in degrees
	RotationVelocity float64 `yaml:"rotation_velocity"` // Nose-down degrees per tick
	MinRotation      float64 `yaml:"min_rotation"`      // Nose-down limit in degrees
	TiltMargin       float64 `yaml:"tilt_margin"`       // Stay nose-up until this far below jump height
	AnimationTicks   int     `yaml:"animation_ticks"`   // Ticks per wing frame
}

// ObstacleConfig defines pipe geometry and movement.
type ObstacleConfig struct {
	SpawnX    int `yaml:"spawn_x"`
	Velocity  int `yaml:"velocity"` // Pixels per tick, also used by the ground strip
	Gap       int `yaml:"gap"`
	GapMin    int `yaml:"gap_min"` // Inclusive lower bound of the gap top
	GapMax    int `yaml:"gap_max"` // Exclusive upper bound of the gap top
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	LipHeight int `yaml:"lip_height"`
	LipInset  int `yaml:"lip_inset"` // Body inset on each side below the lip
}

// ScoringConfig defines the fitness protocol and termination threshold.
type ScoringConfig struct {
	SurvivalReward    float64 `yaml:"survival_reward"`
	PassReward        float64 `yaml:"pass_reward"`
	CollisionPenalty  float64 `yaml:"collision_penalty"` // Subtracted on pipe collision
	ScoreThreshold    int     `yaml:"score_threshold"`   // Run ends once score exceeds this
	DecisionThreshold float64 `yaml:"decision_threshold"`
}

// PopulationConfig defines the batch population.
type PopulationConfig struct {
	Size int `yaml:"size"`
}

// EvolutionConfig defines the reference optimizer used by `train`.
type EvolutionConfig struct {
	Generations    int     `yaml:"generations"`
	Elite          int     `yaml:"elite"`
	TournamentSize int     `yaml:"tournament_size"`
	MutationRate   float64 `yaml:"mutation_rate"`
	MutationStd    float64 `yaml:"mutation_std"`
	Hidden         int     `yaml:"hidden"` // Hidden neurons, 0 = direct connection
}

// Validate checks every parameter and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("config: "+format, args...))
		}
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	w, a, o, s := c.World, c.Agent, c.Obstacles, c.Scoring
	check(w.Width > 0 && w.Height > 0, "world size must be positive, got %dx%d", w.Width, w.Height)
	check(w.GroundY > 0 && w.GroundY <= w.Height, "ground_y %d must be within (0, %d]", w.GroundY, w.Height)
	check(w.StripWidth >= w.Width, "strip_width %d must cover world width %d", w.StripWidth, w.Width)
	check(w.TickRate > 0, "tick_rate must be positive, got %d", w.TickRate)

	check(a.Width > 0 && a.Height > 0, "agent size must be positive, got %dx%d", a.Width, a.Height)
	check(a.X >= 0 && a.X < w.Width, "agent x %d outside world", a.X)
	check(finite(a.Y) && a.Y >= 0 && a.Y+float64(a.Height) < float64(w.GroundY), "agent y %.1f must start between the ceiling and the ground", a.Y)
	check(finite(a.JumpImpulse) && a.JumpImpulse < 0, "jump_impulse must be negative, got %v", a.JumpImpulse)
	check(finite(a.Acceleration) && a.Acceleration > 0, "acceleration must be positive, got %v", a.Acceleration)
	check(finite(a.TerminalVelocity) && a.TerminalVelocity > 0, "terminal_velocity must be positive, got %v", a.TerminalVelocity)
	check(finite(a.UpwardBoost) && a.UpwardBoost >= 0, "upward_boost must not be negative, got %v", a.UpwardBoost)
	check(a.RotationVelocity >= 0, "rotation_velocity must not be negative, got %v", a.RotationVelocity)
	check(a.MinRotation <= a.MaxRotation, "min_rotation %v exceeds max_rotation %v", a.MinRotation, a.MaxRotation)
	check(a.AnimationTicks > 0, "animation_ticks must be positive, got %d", a.AnimationTicks)

	check(o.Velocity > 0, "obstacle velocity must be positive, got %d", o.Velocity)
	check(o.Gap > 0, "obstacle gap must be positive, got %d", o.Gap)
	check(o.GapMin < o.GapMax, "gap range [%d, %d) is empty", o.GapMin, o.GapMax)
	check(o.Width > 0 && o.Height > 0, "obstacle size must be positive, got %dx%d", o.Width, o.Height)
	check(o.LipHeight >= 0 && o.LipHeight <= o.Height, "lip_height %d outside pipe height", o.LipHeight)
	check(o.LipInset >= 0 && 2*o.LipInset < o.Width, "lip_inset %d leaves no pipe body", o.LipInset)
	check(o.SpawnX > a.X, "spawn_x %d must be right of agent x %d", o.SpawnX, a.X)

	check(finite(s.SurvivalReward), "survival_reward must be finite")
	check(finite(s.PassReward), "pass_reward must be finite")
	check(finite(s.CollisionPenalty), "collision_penalty must be finite")
	check(s.ScoreThreshold >= 0, "score_threshold must not be negative, got %d", s.ScoreThreshold)
	check(finite(s.DecisionThreshold), "decision_threshold must be finite")

	check(c.Population.Size > 0, "population size must be positive, got %d", c.Population.Size)

	e := c.Evolution
	check(e.Generations > 0, "generations must be positive, got %d", e.Generations)
	check(e.Elite >= 0 && e.Elite <= c.Population.Size, "elite %d outside [0, %d]", e.Elite, c.Population.Size)
	check(e.TournamentSize > 0, "tournament_size must be positive, got %d", e.TournamentSize)
	check(e.MutationRate >= 0 && e.MutationRate <= 1, "mutation_rate %v outside [0, 1]", e.MutationRate)
	check(e.MutationStd >= 0, "mutation_std must not be negative, got %v", e.MutationStd)
	check(e.Hidden >= 0, "hidden must not be negative, got %d", e.Hidden)

	return errors.Join(errs...)
}

// WriteYAML saves the configuration to path.
func (c Config) WriteYAML(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Encode returns the configuration as YAML.
func (c Config) Encode() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshaling: %w", err)
	}
	return data, nil
}
