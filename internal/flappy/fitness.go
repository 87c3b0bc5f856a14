package flappy

import "sync"

// RewardKind classifies a fitness event.
type RewardKind int

const (
	RewardSurvival   RewardKind = iota // Per tick alive
	RewardPass                         // Any agent passed a pipe
	PenaltyCollision                   // Pipe hit
)

// String returns a human-readable name.
func (k RewardKind) String() string {
	switch k {
	case RewardSurvival:
		return "survival"
	case RewardPass:
		return "pass"
	case PenaltyCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// Reward is one fitness adjustment for one agent.
type Reward struct {
	Agent AgentID
	Kind  RewardKind
	Delta float64
	Tick  int
}

// FitnessChannel receives every fitness adjustment of a batch run, in the
// order the scheduler applies them.
type FitnessChannel interface {
	Report(r Reward)
}

// FitnessFunc adapts a plain function to FitnessChannel.
type FitnessFunc func(r Reward)

// Report calls f(r).
func (f FitnessFunc) Report(r Reward) { f(r) }

// Ledger is a FitnessChannel that sums deltas per agent and counts events
// per kind. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	totals map[AgentID]float64
	counts map[RewardKind]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		totals: make(map[AgentID]float64),
		counts: make(map[RewardKind]int),
	}
}

// Report records r.
func (l *Ledger) Report(r Reward) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[r.Agent] += r.Delta
	l.counts[r.Kind]++
}

// Total returns the summed deltas for an agent.
func (l *Ledger) Total(id AgentID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[id]
}

// Count returns how many events of a kind were recorded.
func (l *Ledger) Count(kind RewardKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[kind]
}
