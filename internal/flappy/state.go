package flappy

// State is the scheduler's run state. Every state other than StateRunning is
// terminal.
type State int

const (
	StateRunning State = iota
	StateAllEliminated
	StateManualQuit
	StateScoreThresholdReached
	StateAborted // An invariant was violated
)

// String returns a human-readable name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAllEliminated:
		return "all eliminated"
	case StateManualQuit:
		return "manual quit"
	case StateScoreThresholdReached:
		return "score threshold reached"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminated reports whether the run is over.
func (s State) Terminated() bool {
	return s != StateRunning
}

// Cause records why an agent was eliminated.
type Cause int

const (
	CauseNone Cause = iota
	CausePipe
	CauseGround
	CauseCeiling
	CauseDecisionFault
)

// String returns a human-readable name.
func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CausePipe:
		return "pipe"
	case CauseGround:
		return "ground"
	case CauseCeiling:
		return "ceiling"
	case CauseDecisionFault:
		return "decision fault"
	default:
		return "unknown"
	}
}

// Elimination describes one agent leaving the active set.
type Elimination struct {
	Agent   AgentID
	Cause   Cause
	Tick    int
	Fitness float64 // Frozen value at elimination
}
