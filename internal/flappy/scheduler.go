// Package flappy implements the flappy-bird simulation core: agent physics,
// pipes, the scrolling ground, pixel-mask collision and the scheduler that
// runs one manual agent or a population of agents driven by decision
// functions.
package flappy

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/core"
	"github.com/vovakirdan/flappy-neat/internal/mask"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for elimination and termination records.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFitnessChannel forwards every fitness adjustment of a batch run to ch.
func WithFitnessChannel(ch FitnessChannel) Option {
	return func(s *Scheduler) {
		s.channel = ch
	}
}

// WithAgentMask replaces the agent silhouette used for collision.
func WithAgentMask(m *mask.Mask) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.collider = NewCollider(m)
		}
	}
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick       int
	Score      int
	Passed     bool // A pipe was passed and a new one spawned
	Eliminated []Elimination
	Active     int
	State      State
}

// Result is the outcome of a finished run.
type Result struct {
	State        State
	Score        int
	Ticks        int
	Fitness      []float64 // Final fitness by AgentID, batch mode only
	Eliminations []Elimination
}

// Scheduler owns one run: the active agents, the active pipes, the ground
// strip and the score. It is not safe for concurrent use.
type Scheduler struct {
	cfg      config.Config
	mode     config.Mode
	rng      *rand.Rand
	shape    *pipeShape
	collider *Collider
	logger   *log.Logger
	channel  FitnessChannel
	keys     *keyboard

	all    []*Agent // By AgentID
	active []*Agent
	pipes  []*Pipe // Spawn order, oldest first
	strip  *Strip

	score   int
	tick    int
	state   State
	err     error
	elimLog []Elimination
}

// NewScheduler validates cfg and sets up a run at tick zero with one pipe.
// Batch mode creates one agent per decider. Manual mode creates a single
// agent driven by the jump action of each input frame and takes no deciders.
func NewScheduler(cfg config.Config, mode config.Mode, deciders []Decider, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:      cfg,
		mode:     mode,
		rng:      rand.New(rand.NewSource(cfg.World.Seed)),
		shape:    newPipeShape(cfg.Obstacles),
		collider: NewCollider(mask.Ellipse(cfg.Agent.Width, cfg.Agent.Height)),
		logger:   log.New(io.Discard),
		strip:    NewStrip(cfg.World.GroundY, cfg.World.StripWidth, cfg.Obstacles.Velocity),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch mode {
	case config.ModeManual:
		if len(deciders) > 0 {
			return nil, fmt.Errorf("flappy: manual mode takes no decision functions, got %d", len(deciders))
		}
		s.keys = &keyboard{threshold: cfg.Scoring.DecisionThreshold}
		s.all = []*Agent{newAgent(0, cfg.Agent, s.keys)}
	case config.ModeBatch:
		if len(deciders) == 0 {
			return nil, ErrNoEntrants
		}
		s.all = make([]*Agent, len(deciders))
		for i, d := range deciders {
			s.all[i] = newAgent(AgentID(i), cfg.Agent, d)
		}
	default:
		return nil, fmt.Errorf("flappy: unknown mode %q", mode)
	}
	s.active = append([]*Agent(nil), s.all...)

	p, err := newPipe(cfg.Obstacles.SpawnX, s.rng, cfg.Obstacles, s.shape)
	if err != nil {
		return nil, err
	}
	s.pipes = []*Pipe{p}
	return s, nil
}

// Mode returns the run mode.
func (s *Scheduler) Mode() config.Mode { return s.mode }

// Config returns the run parameters.
func (s *Scheduler) Config() config.Config { return s.cfg }

// Score returns the number of pipes passed.
func (s *Scheduler) Score() int { return s.score }

// Tick returns the number of ticks simulated.
func (s *Scheduler) Tick() int { return s.tick }

// State returns the run state.
func (s *Scheduler) State() State { return s.state }

// Strip returns the ground strip.
func (s *Scheduler) Strip() *Strip { return s.strip }

// Agents returns the active agents.
func (s *Scheduler) Agents() []*Agent {
	return append([]*Agent(nil), s.active...)
}

// AllAgents returns every agent of the run by AgentID, eliminated included.
func (s *Scheduler) AllAgents() []*Agent {
	return append([]*Agent(nil), s.all...)
}

// Obstacles returns the active pipes, oldest first.
func (s *Scheduler) Obstacles() []*Pipe {
	return append([]*Pipe(nil), s.pipes...)
}

// Lead returns the pipe whose gap is fed to decision functions: the first
// pipe whose right edge the agents have not yet cleared.
func (s *Scheduler) Lead() *Pipe {
	if len(s.pipes) == 0 {
		return nil
	}
	x := s.cfg.Agent.X
	for _, p := range s.pipes {
		if x <= p.x+p.Width() {
			return p
		}
	}
	return s.pipes[len(s.pipes)-1]
}

// Step simulates one tick. A quit action in a manual run ends the run at
// the tick boundary. Once the run is over Step does nothing and returns the
// error that aborted it, if any.
func (s *Scheduler) Step(in core.InputFrame) (TickReport, error) {
	if s.state.Terminated() {
		return s.report(nil, false), s.err
	}
	if in.Has(core.ActionQuit) {
		s.finish(StateManualQuit)
		return s.report(nil, false), nil
	}
	if s.keys != nil {
		s.keys.jump = in.Has(core.ActionJump)
	}

	s.tick++
	sc := s.cfg.Scoring
	var out []Elimination

	for _, p := range s.pipes {
		p.Advance(s.cfg.Obstacles.Velocity)
	}
	s.strip.Advance()

	lead := s.Lead()
	for _, a := range s.active {
		v, err := decide(a.decider, observe(a, lead))
		if err != nil {
			s.logger.Debug("decision fault", "agent", a.id, "err", err)
			out = append(out, s.eliminate(a, CauseDecisionFault))
			continue
		}
		if v > sc.DecisionThreshold {
			a.Jump()
		}
		a.Advance()
		if math.IsNaN(a.y) || math.IsInf(a.y, 0) {
			return s.abort(fmt.Errorf("%w: agent %d height %v at tick %d", ErrInvariant, a.id, a.y, s.tick))
		}
		s.reward(a, RewardSurvival, sc.SurvivalReward)
	}
	s.prune()

	passed := false
	for _, p := range s.pipes {
		for _, a := range s.active {
			if !a.alive {
				continue
			}
			if s.collider.Collides(a, p) {
				s.reward(a, PenaltyCollision, -sc.CollisionPenalty)
				out = append(out, s.eliminate(a, CausePipe))
			}
			// A colliding agent still counts as having passed the pipe
			if p.x < a.x && p.markPassed() {
				passed = true
			}
		}
	}
	s.prune()

	if passed {
		s.score++
		for _, a := range s.active {
			s.reward(a, RewardPass, sc.PassReward)
		}
		p, err := newPipe(s.cfg.Obstacles.SpawnX, s.rng, s.cfg.Obstacles, s.shape)
		if err != nil {
			return s.abort(err)
		}
		s.pipes = append(s.pipes, p)
	}

	kept := s.pipes[:0]
	for _, p := range s.pipes {
		if !p.ScrolledOff() {
			kept = append(kept, p)
		}
	}
	s.pipes = kept

	for _, a := range s.active {
		switch {
		case a.y+float64(s.cfg.Agent.Height) >= float64(s.cfg.World.GroundY):
			out = append(out, s.eliminate(a, CauseGround))
		case a.y < 0:
			out = append(out, s.eliminate(a, CauseCeiling))
		}
	}
	s.prune()

	switch {
	case s.score > sc.ScoreThreshold:
		s.finish(StateScoreThresholdReached)
	case len(s.active) == 0:
		s.finish(StateAllEliminated)
	}
	return s.report(out, passed), nil
}

// Run steps until the run ends or ctx is cancelled. Cancellation is checked
// at every tick boundary and ends the run as a manual quit.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	empty := core.NewInputFrame()
	for !s.state.Terminated() {
		if ctx.Err() != nil {
			s.finish(StateManualQuit)
			break
		}
		if _, err := s.Step(empty); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), s.err
}

// Result returns the run outcome so far.
func (s *Scheduler) Result() Result {
	r := Result{
		State:        s.state,
		Score:        s.score,
		Ticks:        s.tick,
		Eliminations: append([]Elimination(nil), s.elimLog...),
	}
	if s.mode == config.ModeBatch {
		r.Fitness = make([]float64, len(s.all))
		for i, a := range s.all {
			r.Fitness[i] = a.fitness
		}
	}
	return r
}

// reward applies a fitness delta. Manual runs keep no fitness.
func (s *Scheduler) reward(a *Agent, kind RewardKind, delta float64) {
	if s.mode != config.ModeBatch {
		return
	}
	a.fitness += delta
	if s.channel != nil {
		s.channel.Report(Reward{Agent: a.id, Kind: kind, Delta: delta, Tick: s.tick})
	}
}

// eliminate marks a as finished. The active set is compacted by prune.
func (s *Scheduler) eliminate(a *Agent, cause Cause) Elimination {
	a.eliminate(cause, s.tick)
	e := Elimination{Agent: a.id, Cause: cause, Tick: s.tick, Fitness: a.fitness}
	s.elimLog = append(s.elimLog, e)
	s.logger.Debug("agent eliminated", "agent", a.id, "cause", cause, "tick", s.tick, "fitness", a.fitness)
	return e
}

// prune drops eliminated agents from the active set by identity.
func (s *Scheduler) prune() {
	kept := s.active[:0]
	for _, a := range s.active {
		if a.alive {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}

func (s *Scheduler) finish(state State) {
	s.state = state
	s.logger.Debug("run finished", "state", state, "score", s.score, "ticks", s.tick, "active", len(s.active))
}

func (s *Scheduler) abort(err error) (TickReport, error) {
	s.err = err
	s.finish(StateAborted)
	s.logger.Error("run aborted", "err", err)
	return s.report(nil, false), err
}

func (s *Scheduler) report(out []Elimination, passed bool) TickReport {
	return TickReport{
		Tick:       s.tick,
		Score:      s.score,
		Passed:     passed,
		Eliminated: out,
		Active:     len(s.active),
		State:      s.state,
	}
}
