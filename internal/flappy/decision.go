package flappy

import (
	"fmt"
	"math"
)

// Observation is what a decision function sees each tick: the agent's height
// and its distances to the top and bottom edges of the lead pipe's gap.
type Observation struct {
	Height        float64
	GapTopDist    float64
	GapBottomDist float64
}

// Vector returns the observation as a fixed-order input vector.
func (o Observation) Vector() []float64 {
	return []float64{o.Height, o.GapTopDist, o.GapBottomDist}
}

// Decider turns an observation into a scalar. The scheduler jumps when the
// scalar exceeds the configured decision threshold.
type Decider interface {
	Decide(obs Observation) (float64, error)
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func(obs Observation) (float64, error)

// Decide calls f(obs).
func (f DeciderFunc) Decide(obs Observation) (float64, error) {
	return f(obs)
}

// observe builds the observation for an agent against the lead pipe.
func observe(a *Agent, lead *Pipe) Observation {
	obs := Observation{Height: a.y}
	if lead != nil {
		obs.GapTopDist = math.Abs(a.y - float64(lead.gapY))
		obs.GapBottomDist = math.Abs(a.y - float64(lead.bottom))
	}
	return obs
}

// decide queries d and rejects values that cannot be compared. A panicking
// decider is reported as a decision error.
func decide(d Decider, obs Observation) (v float64, err error) {
	if d == nil {
		return 0, fmt.Errorf("%w: no decision function", ErrDecision)
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("%w: panic: %v", ErrDecision, r)
		}
	}()
	v, err = d.Decide(obs)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecision, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrDecision, v)
	}
	return v, nil
}

// keyboard is the decider for the manual variant. It jumps on the tick the
// jump action is present.
type keyboard struct {
	threshold float64
	jump      bool
}

func (k *keyboard) Decide(Observation) (float64, error) {
	if k.jump {
		return k.threshold + 1, nil
	}
	return k.threshold - 1, nil
}
