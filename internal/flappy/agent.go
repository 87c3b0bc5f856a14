package flappy

import (
	"math"

	"github.com/vovakirdan/flappy-neat/internal/config"
)

// AgentID identifies an agent for the lifetime of a run. In batch mode it is
// the index of the agent's decision function in the slice given to
// NewScheduler, so results map back to genomes 1:1.
type AgentID int

// Agent is a bird: a fixed horizontal position, a vertical position driven by
// a tick-counted quadratic displacement model, and presentation-only tilt.
type Agent struct {
	id      AgentID
	x       int
	y       float64
	vel     float64
	ticks   int     // Ticks since the last jump
	jumpY   float64 // Height at the last jump
	tilt    float64 // Degrees, positive = nose up
	frames  int     // Animation counter
	physics config.AgentConfig

	decider Decider
	fitness float64
	alive   bool
	cause   Cause
	endTick int
}

func newAgent(id AgentID, cfg config.AgentConfig, d Decider) *Agent {
	return &Agent{
		id:      id,
		x:       cfg.X,
		y:       cfg.Y,
		jumpY:   cfg.Y,
		physics: cfg,
		decider: d,
		alive:   true,
	}
}

// ID returns the agent's stable identity.
func (a *Agent) ID() AgentID { return a.id }

// X returns the fixed horizontal position (left edge).
func (a *Agent) X() int { return a.x }

// Y returns the vertical position (top edge).
func (a *Agent) Y() float64 { return a.y }

// Velocity returns the velocity set by the last jump.
func (a *Agent) Velocity() float64 { return a.vel }

// TicksSinceJump returns the tick counter driving the displacement model.
func (a *Agent) TicksSinceJump() int { return a.ticks }

// Tilt returns the presentation angle in degrees.
func (a *Agent) Tilt() float64 { return a.tilt }

// Alive reports whether the agent is still in the active set.
func (a *Agent) Alive() bool { return a.alive }

// Fitness returns the accumulated fitness. It is frozen once eliminated.
func (a *Agent) Fitness() float64 { return a.fitness }

// Cause returns why the agent was eliminated, or CauseNone.
func (a *Agent) Cause() Cause { return a.cause }

// EliminatedAt returns the tick of elimination, or 0 while alive.
func (a *Agent) EliminatedAt() int { return a.endTick }

// Jump resets the displacement model with an upward impulse.
func (a *Agent) Jump() {
	a.vel = a.physics.JumpImpulse
	a.ticks = 0
	a.jumpY = a.y
}

// Advance integrates one tick and returns the displacement applied.
// Displacement depends only on ticks since the last jump, never on wall time.
func (a *Agent) Advance() float64 {
	p := a.physics
	a.ticks++
	t := float64(a.ticks)

	d := a.vel*t + p.Acceleration*t*t
	if d >= p.TerminalVelocity {
		d = p.TerminalVelocity
	}
	if d < 0 {
		d -= p.UpwardBoost
	}
	a.y += d

	if d < 0 || a.y < a.jumpY+p.TiltMargin {
		if a.tilt < p.MaxRotation {
			a.tilt = p.MaxRotation
		}
	} else if a.tilt > p.MinRotation {
		a.tilt = math.Max(a.tilt-p.RotationVelocity, p.MinRotation)
	}

	a.frames++
	return d
}

// Frame returns the wing animation frame (0, 1 or 2). Wings hold still
// while diving.
func (a *Agent) Frame() int {
	if a.tilt <= -80 {
		return 1
	}
	step := a.physics.AnimationTicks
	if step <= 0 {
		return 0
	}
	switch (a.frames / step) % 4 {
	case 0:
		return 0
	case 1, 3:
		return 1
	default:
		return 2
	}
}

// pixelY returns the height used for mask offsets. It rounds half to even to
// stay on the same pixel grid as the silhouettes.
func (a *Agent) pixelY() int {
	return int(math.RoundToEven(a.y))
}

// eliminate freezes the agent and releases its decision function.
func (a *Agent) eliminate(cause Cause, tick int) {
	a.alive = false
	a.cause = cause
	a.endTick = tick
	a.decider = nil
}
