package flappy

import "errors"

var (
	// ErrInvariant marks a physics or geometry bug. It is fatal to the run.
	ErrInvariant = errors.New("flappy: invariant violated")

	// ErrDecision marks a decision function that produced no usable value.
	// It is fatal to the agent only.
	ErrDecision = errors.New("flappy: unusable decision")

	// ErrNoEntrants is returned when a batch run is started without agents.
	ErrNoEntrants = errors.New("flappy: batch run needs at least one decision function")
)
