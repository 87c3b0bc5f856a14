// Package policy holds the built-in fixed decision functions. Importing it
// registers them with the registry.
package policy

import (
	"math/rand"

	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/registry"
)

// Never never jumps.
type Never struct{}

func (Never) ID() string    { return "never" }
func (Never) Title() string { return "Never jump" }

func (Never) Decide(flappy.Observation) (float64, error) { return 0, nil }

// Metronome jumps on its first call and every Period calls after that.
type Metronome struct {
	Period int
	calls  int
}

func (*Metronome) ID() string    { return "metronome" }
func (*Metronome) Title() string { return "Metronome (jump every 10 ticks)" }

func (m *Metronome) Decide(flappy.Observation) (float64, error) {
	c := m.calls
	m.calls++
	if m.Period > 0 && c%m.Period == 0 {
		return 1, nil
	}
	return 0, nil
}

// Random jumps with probability P on each call.
type Random struct {
	P   float64
	rng *rand.Rand
}

// NewRandom creates a seeded random policy.
func NewRandom(p float64, seed int64) *Random {
	return &Random{P: p, rng: rand.New(rand.NewSource(seed))}
}

func (*Random) ID() string    { return "random" }
func (*Random) Title() string { return "Random flapper" }

func (r *Random) Decide(flappy.Observation) (float64, error) {
	if r.rng.Float64() < r.P {
		return 1, nil
	}
	return 0, nil
}

// Heuristic jumps when the agent sits closer to the bottom edge of the gap
// than to the top and within Margin pixels of it.
type Heuristic struct {
	Margin float64
}

func (Heuristic) ID() string    { return "heuristic" }
func (Heuristic) Title() string { return "Gap follower" }

func (h Heuristic) Decide(obs flappy.Observation) (float64, error) {
	if obs.GapBottomDist < obs.GapTopDist && obs.GapBottomDist < h.Margin {
		return 1, nil
	}
	return 0, nil
}

func init() {
	registry.Register("never", func(int64) registry.Policy { return Never{} })
	registry.Register("metronome", func(int64) registry.Policy { return &Metronome{Period: 10} })
	registry.Register("random", func(seed int64) registry.Policy { return NewRandom(0.1, seed) })
	registry.Register("heuristic", func(int64) registry.Policy { return Heuristic{Margin: 110} })
}
