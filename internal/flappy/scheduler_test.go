package flappy

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/core"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

// jumpEvery returns a decider that jumps on its first call and every n
// calls after that.
func jumpEvery(n int) Decider {
	calls := 0
	return DeciderFunc(func(Observation) (float64, error) {
		c := calls
		calls++
		if c%n == 0 {
			return 1, nil
		}
		return 0, nil
	})
}

func never() Decider {
	return DeciderFunc(func(Observation) (float64, error) { return 0, nil })
}

func always() Decider {
	return DeciderFunc(func(Observation) (float64, error) { return 1, nil })
}

func newBatch(t *testing.T, deciders ...Decider) *Scheduler {
	t.Helper()
	cfg := config.Default(config.ModeBatch)
	cfg.World.Seed = 42
	s, err := NewScheduler(cfg, config.ModeBatch, deciders)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

// placePipe replaces the run's pipes with a single pipe.
func placePipe(t *testing.T, s *Scheduler, x, gapY int) *Pipe {
	t.Helper()
	p, err := newPipeAt(x, gapY, s.shape)
	if err != nil {
		t.Fatal(err)
	}
	s.pipes = []*Pipe{p}
	return p
}

func step(t *testing.T, s *Scheduler) TickReport {
	t.Helper()
	r, err := s.Step(core.NewInputFrame())
	if err != nil {
		t.Fatalf("tick %d: %v", s.Tick(), err)
	}
	return r
}

func TestNewSchedulerErrors(t *testing.T) {
	cfg := config.Default(config.ModeBatch)

	if _, err := NewScheduler(cfg, config.ModeBatch, nil); !errors.Is(err, ErrNoEntrants) {
		t.Errorf("no entrants: err = %v, want ErrNoEntrants", err)
	}
	if _, err := NewScheduler(cfg, config.ModeManual, []Decider{never()}); err == nil {
		t.Error("manual mode accepted deciders")
	}
	if _, err := NewScheduler(cfg, config.Mode("coop"), []Decider{never()}); err == nil {
		t.Error("unknown mode accepted")
	}

	bad := cfg
	bad.Obstacles.Gap = 0
	if _, err := NewScheduler(bad, config.ModeBatch, []Decider{never()}); err == nil || !strings.Contains(err.Error(), "config:") {
		t.Errorf("invalid config: err = %v, want config error", err)
	}
}

func TestSchedulerInitialState(t *testing.T) {
	s := newBatch(t, never(), never(), never())

	if len(s.Agents()) != 3 {
		t.Errorf("active agents = %d, want 3", len(s.Agents()))
	}
	for i, a := range s.AllAgents() {
		if a.ID() != AgentID(i) {
			t.Errorf("agent %d has id %d", i, a.ID())
		}
		if a.X() != 230 || a.Y() != 350 {
			t.Errorf("agent %d at (%d, %v), want (230, 350)", i, a.X(), a.Y())
		}
	}
	obs := s.Obstacles()
	if len(obs) != 1 || obs[0].X() != 600 {
		t.Fatalf("initial obstacles = %v, want one at x=600", obs)
	}
	if s.State() != StateRunning || s.Score() != 0 || s.Tick() != 0 {
		t.Errorf("state=%v score=%d tick=%d", s.State(), s.Score(), s.Tick())
	}
}

func TestObservation(t *testing.T) {
	var got []Observation
	spy := DeciderFunc(func(obs Observation) (float64, error) {
		got = append(got, obs)
		return 0, nil
	})
	s := newBatch(t, spy)
	placePipe(t, s, 600, 250)

	step(t, s)
	want := Observation{Height: 350, GapTopDist: 100, GapBottomDist: 100}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("observations = %+v, want [%+v]", got, want)
	}
	if v := want.Vector(); len(v) != 3 || v[0] != 350 || v[1] != 100 || v[2] != 100 {
		t.Errorf("Vector = %v", v)
	}
}

func TestLeadObstacle(t *testing.T) {
	s := newBatch(t, never())
	first := placePipe(t, s, 150, 200)
	second, _ := newPipeAt(500, 300, s.shape)
	s.pipes = append(s.pipes, second)

	// Right edge 254 is still ahead of the agent at 230
	if s.Lead() != first {
		t.Error("lead should be the first pipe while its right edge is ahead")
	}

	first.x = 100
	if s.Lead() != second {
		t.Error("lead should advance once the first pipe's width has scrolled past")
	}

	second.x = 50
	if s.Lead() != second {
		t.Error("lead should fall back to the newest pipe")
	}
}

// A falling agent moves strictly down until it hits the bottom pipe or the
// ground.
func TestScenarioFallingAgent(t *testing.T) {
	s := newBatch(t, never())
	p := placePipe(t, s, 600, 250)
	if p.Bottom() != 450 {
		t.Fatalf("bottom edge = %d, want 450", p.Bottom())
	}

	a := s.AllAgents()[0]
	prev := a.Y()
	for !s.State().Terminated() {
		step(t, s)
		if a.Y() <= prev {
			t.Fatalf("tick %d: y %v did not increase from %v", s.Tick(), a.Y(), prev)
		}
		prev = a.Y()
	}

	switch a.Cause() {
	case CausePipe:
	case CauseGround:
		if a.Y()+float64(s.cfg.Agent.Height) < float64(s.cfg.World.GroundY) {
			t.Errorf("ground elimination at y=%v", a.Y())
		}
	default:
		t.Errorf("cause = %v, want pipe or ground", a.Cause())
	}
	if s.State() != StateAllEliminated {
		t.Errorf("state = %v, want all eliminated", s.State())
	}
}

func TestScenarioJumperOutlastsFaller(t *testing.T) {
	s := newBatch(t, jumpEvery(10), never())
	placePipe(t, s, 600, 200)

	for i := 0; i < 200 && !s.State().Terminated(); i++ {
		step(t, s)
	}

	all := s.AllAgents()
	jumper, faller := all[0], all[1]
	if faller.Alive() || faller.Cause() != CauseGround {
		t.Fatalf("faller alive=%v cause=%v, want eliminated by ground", faller.Alive(), faller.Cause())
	}
	if faller.EliminatedAt() != 21 {
		t.Errorf("faller eliminated at tick %d, want 21", faller.EliminatedAt())
	}
	if !approx(faller.Fitness(), 2.1) {
		t.Errorf("faller fitness = %v, want 2.1", faller.Fitness())
	}
	if !jumper.Alive() && jumper.EliminatedAt() <= faller.EliminatedAt() {
		t.Errorf("jumper eliminated at %d, before faller at %d", jumper.EliminatedAt(), faller.EliminatedAt())
	}
	if jumper.Fitness() < faller.Fitness() {
		t.Errorf("jumper fitness %v < faller fitness %v", jumper.Fitness(), faller.Fitness())
	}
	if s.Score() < 1 {
		t.Errorf("score = %d, want the first pipe passed", s.Score())
	}
}

func TestScenarioPassRewardsEverySurvivor(t *testing.T) {
	var tickRewards []Reward
	cfg := config.Default(config.ModeBatch)
	s, err := NewScheduler(cfg, config.ModeBatch,
		[]Decider{jumpEvery(10), jumpEvery(10), jumpEvery(10), never()},
		WithFitnessChannel(FitnessFunc(func(r Reward) { tickRewards = append(tickRewards, r) })),
	)
	if err != nil {
		t.Fatal(err)
	}
	placePipe(t, s, 600, 200)

	for !s.State().Terminated() {
		before := make(map[AgentID]float64)
		for _, a := range s.Agents() {
			before[a.ID()] = a.Fitness()
		}
		tickRewards = tickRewards[:0]

		r := step(t, s)
		if !r.Passed {
			continue
		}

		if r.Tick != 38 {
			t.Errorf("pass at tick %d, want 38", r.Tick)
		}
		passTotal := 0.0
		for _, rw := range tickRewards {
			if rw.Kind == RewardPass {
				passTotal += rw.Delta
			}
		}
		if !approx(passTotal, 5*float64(r.Active)) {
			t.Errorf("pass rewards sum to %v, want %v", passTotal, 5*float64(r.Active))
		}
		if r.Active != 3 {
			t.Errorf("active at pass = %d, want 3", r.Active)
		}
		for _, a := range s.Agents() {
			if d := a.Fitness() - before[a.ID()]; !approx(d, 5.1) {
				t.Errorf("agent %d delta = %v, want 5.1", a.ID(), d)
			}
		}
		if len(s.Obstacles()) != 2 {
			t.Errorf("obstacles after pass = %d, want 2", len(s.Obstacles()))
		}
		return
	}
	t.Fatal("run ended without a pass")
}

func TestScenarioScoreThreshold(t *testing.T) {
	s := newBatch(t, never(), never(), never())
	placePipe(t, s, s.cfg.Agent.X+5, 300)
	s.score = s.cfg.Scoring.ScoreThreshold

	r := step(t, s)
	if r.State != StateScoreThresholdReached {
		t.Fatalf("state = %v, want score threshold reached", r.State)
	}
	if r.Score != 51 || r.Active != 3 {
		t.Errorf("score=%d active=%d, want 51 and 3", r.Score, r.Active)
	}

	res := s.Result()
	if res.State != StateScoreThresholdReached || len(res.Fitness) != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestCollisionPenaltyAppliedOnce(t *testing.T) {
	ledger := NewLedger()
	cfg := config.Default(config.ModeBatch)
	s, err := NewScheduler(cfg, config.ModeBatch, []Decider{never(), never(), never()}, WithFitnessChannel(ledger))
	if err != nil {
		t.Fatal(err)
	}
	// Top pipe reaches y=600 and sits on the agents after one tick
	placePipe(t, s, cfg.Agent.X+cfg.Obstacles.Velocity, 600)
	other, _ := newPipeAt(cfg.Agent.X+cfg.Obstacles.Velocity+20, 600, s.shape)
	s.pipes = append(s.pipes, other)

	r := step(t, s)
	if len(r.Eliminated) != 3 || r.Active != 0 {
		t.Fatalf("eliminated %d, active %d; want 3 and 0", len(r.Eliminated), r.Active)
	}
	for _, e := range r.Eliminated {
		if e.Cause != CausePipe {
			t.Errorf("agent %d cause = %v, want pipe", e.Agent, e.Cause)
		}
		if !approx(e.Fitness, -0.9) {
			t.Errorf("agent %d fitness = %v, want -0.9", e.Agent, e.Fitness)
		}
		if !approx(ledger.Total(e.Agent), -0.9) {
			t.Errorf("ledger total for %d = %v", e.Agent, ledger.Total(e.Agent))
		}
	}
	if ledger.Count(PenaltyCollision) != 3 {
		t.Errorf("collision penalties = %d, want 3", ledger.Count(PenaltyCollision))
	}
	if r.State != StateAllEliminated {
		t.Errorf("state = %v, want all eliminated", r.State)
	}
}

func TestCollisionStillCountsPass(t *testing.T) {
	cfg := config.Default(config.ModeBatch)
	s, err := NewScheduler(cfg, config.ModeBatch, []Decider{never(), never()})
	if err != nil {
		t.Fatal(err)
	}
	// Pipe ends up 5 pixels left of the agents with its top pipe on them
	p := placePipe(t, s, cfg.Agent.X-5+cfg.Obstacles.Velocity, 600)

	r := step(t, s)
	if len(r.Eliminated) != 2 || r.Active != 0 {
		t.Fatalf("eliminated %d, active %d; want 2 and 0", len(r.Eliminated), r.Active)
	}
	if !p.Passed() || !r.Passed || r.Score != 1 {
		t.Errorf("passed=%v reported=%v score=%d, want a scored pass", p.Passed(), r.Passed, r.Score)
	}
	if n := len(s.Obstacles()); n != 2 {
		t.Errorf("pipes = %d, want the pass to spawn a second pipe", n)
	}
	if r.State != StateAllEliminated {
		t.Errorf("state = %v, want all eliminated", r.State)
	}
}

func TestCeilingEliminationHasNoPenalty(t *testing.T) {
	s := newBatch(t, always(), never())
	s.AllAgents()[0].y = 5

	r := step(t, s)
	if len(r.Eliminated) != 1 || r.Eliminated[0].Cause != CauseCeiling {
		t.Fatalf("eliminated = %+v, want agent 0 by ceiling", r.Eliminated)
	}
	if !approx(r.Eliminated[0].Fitness, 0.1) {
		t.Errorf("fitness = %v, want 0.1", r.Eliminated[0].Fitness)
	}
	if r.State != StateRunning || r.Active != 1 {
		t.Errorf("state=%v active=%d, want running with 1", r.State, r.Active)
	}
}

func TestEliminatedAgentFrozen(t *testing.T) {
	s := newBatch(t, jumpEvery(10), never())

	var faller *Agent
	var frozen float64
	for !s.State().Terminated() && s.Tick() < 300 {
		step(t, s)
		if faller == nil {
			if a := s.AllAgents()[1]; !a.Alive() {
				faller, frozen = a, a.Fitness()
			}
			continue
		}
		for _, a := range s.Agents() {
			if a == faller {
				t.Fatalf("tick %d: eliminated agent back in active set", s.Tick())
			}
		}
		if faller.Fitness() != frozen {
			t.Fatalf("tick %d: eliminated fitness changed from %v to %v", s.Tick(), frozen, faller.Fitness())
		}
	}
	if faller == nil {
		t.Fatal("faller never eliminated")
	}
	if s.Result().Fitness[1] != frozen {
		t.Errorf("result fitness = %v, want %v", s.Result().Fitness[1], frozen)
	}
}

func TestDecisionFaultEliminatesOnlyThatAgent(t *testing.T) {
	tests := []struct {
		name string
		d    Decider
	}{
		{"error", DeciderFunc(func(Observation) (float64, error) { return 0, errors.New("boom") })},
		{"nan", DeciderFunc(func(Observation) (float64, error) { return math.NaN(), nil })},
		{"inf", DeciderFunc(func(Observation) (float64, error) { return math.Inf(1), nil })},
		{"nil", nil},
		{"panics", DeciderFunc(func(Observation) (float64, error) {
			var m map[string]int
			m["x"] = 1
			return 0, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger()
			cfg := config.Default(config.ModeBatch)
			s, err := NewScheduler(cfg, config.ModeBatch, []Decider{never(), tt.d}, WithFitnessChannel(ledger))
			if err != nil {
				t.Fatal(err)
			}

			r := step(t, s)
			if len(r.Eliminated) != 1 || r.Eliminated[0].Agent != 1 || r.Eliminated[0].Cause != CauseDecisionFault {
				t.Fatalf("eliminated = %+v, want agent 1 by decision fault", r.Eliminated)
			}
			faulty := s.AllAgents()[1]
			if faulty.Fitness() != 0 || faulty.Y() != 350 {
				t.Errorf("faulty agent fitness=%v y=%v, want untouched", faulty.Fitness(), faulty.Y())
			}
			if ledger.Total(1) != 0 {
				t.Errorf("ledger recorded %v for faulty agent", ledger.Total(1))
			}
			if r.State != StateRunning || r.Active != 1 {
				t.Errorf("state=%v active=%d, want running with 1", r.State, r.Active)
			}
		})
	}
}

func TestInvariantViolationAbortsRun(t *testing.T) {
	s := newBatch(t, never(), never())
	s.AllAgents()[1].vel = math.NaN()

	_, err := s.Step(core.NewInputFrame())
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
	if s.State() != StateAborted {
		t.Errorf("state = %v, want aborted", s.State())
	}

	tick := s.Tick()
	if _, err := s.Step(core.NewInputFrame()); !errors.Is(err, ErrInvariant) {
		t.Errorf("second step err = %v, want ErrInvariant", err)
	}
	if s.Tick() != tick {
		t.Error("aborted run kept ticking")
	}
}

func TestSchedulerDeterminism(t *testing.T) {
	run := func() ([]float64, []int, Result) {
		s := newBatch(t, jumpEvery(9), jumpEvery(11), jumpEvery(13))
		var ys []float64
		var gaps []int
		for !s.State().Terminated() && s.Tick() < 400 {
			step(t, s)
			for _, a := range s.AllAgents() {
				ys = append(ys, a.Y())
			}
			for _, p := range s.Obstacles() {
				gaps = append(gaps, p.GapY())
			}
		}
		return ys, gaps, s.Result()
	}

	ys1, gaps1, res1 := run()
	ys2, gaps2, res2 := run()
	if len(ys1) != len(ys2) || len(gaps1) != len(gaps2) {
		t.Fatalf("run lengths differ: %d/%d ys, %d/%d gaps", len(ys1), len(ys2), len(gaps1), len(gaps2))
	}
	for i := range ys1 {
		if math.Float64bits(ys1[i]) != math.Float64bits(ys2[i]) {
			t.Fatalf("sample %d: %v != %v", i, ys1[i], ys2[i])
		}
	}
	for i := range gaps1 {
		if gaps1[i] != gaps2[i] {
			t.Fatalf("gap sample %d: %d != %d", i, gaps1[i], gaps2[i])
		}
	}
	if res1.Score != res2.Score || res1.Ticks != res2.Ticks || res1.State != res2.State {
		t.Errorf("results differ: %+v vs %+v", res1, res2)
	}
}

func TestGapImmutableDuringRun(t *testing.T) {
	s := newBatch(t, jumpEvery(10), jumpEvery(10))
	seen := make(map[*Pipe]int)
	for !s.State().Terminated() && s.Tick() < 500 {
		step(t, s)
		for _, p := range s.Obstacles() {
			if g, ok := seen[p]; ok && g != p.GapY() {
				t.Fatalf("tick %d: gap changed from %d to %d", s.Tick(), g, p.GapY())
			}
			seen[p] = p.GapY()
		}
	}
}

func TestPassedNeverResets(t *testing.T) {
	s := newBatch(t, jumpEvery(10), jumpEvery(10))
	placePipe(t, s, 600, 200)
	passed := make(map[*Pipe]bool)
	for !s.State().Terminated() && s.Tick() < 500 {
		step(t, s)
		for _, p := range s.Obstacles() {
			if passed[p] && !p.Passed() {
				t.Fatalf("tick %d: passed flag reset", s.Tick())
			}
			passed[p] = p.Passed()
		}
	}
}

func TestManualRun(t *testing.T) {
	cfg := config.Default(config.ModeManual)
	s, err := NewScheduler(cfg, config.ModeManual, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := s.AllAgents()[0]
	in := core.NewInputFrame()
	in.Set(core.ActionJump)
	if _, err := s.Step(in); err != nil {
		t.Fatal(err)
	}
	want := cfg.Agent.Y + cfg.Agent.JumpImpulse + cfg.Agent.Acceleration - cfg.Agent.UpwardBoost
	if a.Y() != want {
		t.Errorf("y after jump = %v, want %v", a.Y(), want)
	}

	step(t, s)
	if a.TicksSinceJump() != 2 {
		t.Errorf("ticks since jump = %d, want 2", a.TicksSinceJump())
	}

	for !s.State().Terminated() {
		step(t, s)
	}
	if s.State() != StateAllEliminated {
		t.Errorf("state = %v, want all eliminated", s.State())
	}
	if a.Fitness() != 0 || s.Result().Fitness != nil {
		t.Errorf("manual run kept fitness: %v, %v", a.Fitness(), s.Result().Fitness)
	}
}

func TestManualQuit(t *testing.T) {
	s, err := NewScheduler(config.Default(config.ModeManual), config.ModeManual, nil)
	if err != nil {
		t.Fatal(err)
	}
	step(t, s)

	in := core.NewInputFrame()
	in.Set(core.ActionQuit)
	in.Set(core.ActionJump)
	r, err := s.Step(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.State != StateManualQuit || r.Tick != 1 {
		t.Errorf("state=%v tick=%d, want manual quit at tick 1", r.State, r.Tick)
	}
	if r.Active != 1 {
		t.Errorf("active = %d, want the agent left in place", r.Active)
	}
}

func TestRunUntilAllEliminated(t *testing.T) {
	s := newBatch(t, never(), never())
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateAllEliminated {
		t.Errorf("state = %v, want all eliminated", res.State)
	}
	if len(res.Eliminations) != 2 || len(res.Fitness) != 2 {
		t.Errorf("eliminations=%d fitness=%d, want 2 each", len(res.Eliminations), len(res.Fitness))
	}
	for i, f := range res.Fitness {
		if f != res.Eliminations[i].Fitness {
			t.Errorf("agent %d result fitness %v != elimination fitness %v", i, f, res.Eliminations[i].Fitness)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	s := newBatch(t, never())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.State != StateManualQuit || res.Ticks != 0 {
		t.Errorf("state=%v ticks=%d, want manual quit before the first tick", res.State, res.Ticks)
	}
}

func TestRenderHUD(t *testing.T) {
	s := newBatch(t, never(), never())
	placePipe(t, s, 400, 250)
	step(t, s)

	dst := core.NewScreen(50, 40)
	Render(dst, s, 3)
	out := dst.String()
	for _, want := range []string{"Score: 0", "Gen: 3", "Alive: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
	if !strings.ContainsRune(out, PipeChar) {
		t.Error("render missing pipe")
	}

	Render(dst, s, 0)
	if strings.Contains(dst.String(), "Gen:") {
		t.Error("generation drawn for generation 0")
	}
}
