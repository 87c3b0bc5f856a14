package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/core"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	"github.com/vovakirdan/flappy-neat/internal/storage"
)

// fastSteps is the number of ticks simulated per frame while fast forwarding.
const fastSteps = 8

// Model is the Bubble Tea model presenting one scheduler run.
type Model struct {
	sched      *flappy.Scheduler
	restart    func() (*flappy.Scheduler, error) // nil when restarting is not offered
	screen     *core.Screen
	store      *storage.Store
	logger     *log.Logger
	config     core.RuntimeConfig
	generation int
	keys       KeyMap
	help       help.Model
	inputFrame core.InputFrame
	paused     bool
	fast       bool
	quitting   bool
	scoreSaved bool // Whether the score has been saved for the current run
	highScore  int
	err        error
}

// NewPlayModel creates a model for keyboard play. restart builds a fresh
// manual scheduler and is called once up front.
func NewPlayModel(restart func() (*flappy.Scheduler, error), store *storage.Store, cfg core.RuntimeConfig, logger *log.Logger) (Model, error) {
	s, err := restart()
	if err != nil {
		return Model{}, err
	}
	m := newModel(s, cfg, logger)
	m.restart = restart
	m.store = store
	m.keys = PlayKeyMap()
	if store != nil {
		if hs, err := store.HighScore(string(config.ModeManual)); err == nil {
			m.highScore = hs
		}
	}
	return m, nil
}

// NewWatchModel creates a model that presents a batch scheduler until its
// run ends. generation is shown in the HUD when positive.
func NewWatchModel(s *flappy.Scheduler, generation int, cfg core.RuntimeConfig, logger *log.Logger) Model {
	m := newModel(s, cfg, logger)
	m.generation = generation
	m.keys = WatchKeyMap()
	return m
}

func newModel(s *flappy.Scheduler, cfg core.RuntimeConfig, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return Model{
		sched:      s,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH-1),
		logger:     logger,
		config:     cfg,
		help:       help.New(),
		inputFrame: core.NewInputFrame(),
	}
}

// Scheduler returns the scheduler currently presented.
func (m Model) Scheduler() *flappy.Scheduler { return m.sched }

// Err returns the error that stopped the run, if any.
func (m Model) Err() error { return m.err }

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	state := m.sched.State()
	if state.Terminated() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case m.restart != nil && key.Matches(msg, m.keys.Restart):
			return m.restartRun()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Fast) {
		m.fast = !m.fast
		return m, nil
	}

	if m.keys.MapKeyToFrame(msg, &m.inputFrame) == core.ActionPause {
		m.paused = !m.paused
	}
	// Nothing but quit is queued while paused
	if m.paused && !m.inputFrame.Has(core.ActionQuit) {
		m.inputFrame.Clear()
	}

	// Quit is applied at the next tick boundary, even while paused
	if m.inputFrame.Has(core.ActionQuit) {
		return m.step(1)
	}
	return m, nil
}

// handleResize processes window resize events.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	// Last row is kept for the help line
	m.screen.Resize(msg.Width, core.Max(msg.Height-1, 1))
	m.help.Width = msg.Width
	return m, nil
}

// handleTick advances the simulation.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	if m.paused || m.sched.State().Terminated() {
		return m, tickCmd(m.config.TickRate)
	}

	n := 1
	if m.fast {
		n = fastSteps
	}
	return m.step(n)
}

// step runs up to n ticks and handles the end of the run.
func (m Model) step(n int) (tea.Model, tea.Cmd) {
	for range n {
		rep, err := m.sched.Step(m.inputFrame)
		m.inputFrame.Clear()
		if err != nil {
			m.err = err
			m.quitting = true
			return m, tea.Quit
		}
		if rep.State.Terminated() {
			return m.finish(rep.State)
		}
	}
	return m, tickCmd(m.config.TickRate)
}

// finish records the outcome once the scheduler reports a terminal state.
func (m Model) finish(state flappy.State) (tea.Model, tea.Cmd) {
	if state == flappy.StateManualQuit || m.restart == nil {
		m.quitting = true
		return m, tea.Quit
	}

	// Save the score once per manual run
	if !m.scoreSaved && m.store != nil && m.sched.Score() > 0 {
		if _, err := m.store.SaveScore(string(config.ModeManual), m.sched.Score(), m.sched.Tick()); err != nil {
			m.logger.Warn("failed to save score", "err", err)
		}
	}
	m.scoreSaved = true
	m.highScore = core.Max(m.highScore, m.sched.Score())
	m.logger.Debug("run over", "state", state, "score", m.sched.Score(), "ticks", m.sched.Tick())
	return m, tickCmd(m.config.TickRate)
}

// restartRun replaces the scheduler with a fresh run.
func (m Model) restartRun() (tea.Model, tea.Cmd) {
	s, err := m.restart()
	if err != nil {
		m.err = err
		m.quitting = true
		return m, tea.Quit
	}
	m.sched = s
	m.scoreSaved = false
	m.paused = false
	m.inputFrame.Clear()
	return m, tickCmd(m.config.TickRate)
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	flappy.Render(m.screen, m.sched, m.generation)

	dir := filepath.Join(os.Getenv("HOME"), ".flappy", "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Warn("failed to create screenshot dir", "err", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("flappy_%s.txt", timestamp))
	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.logger.Warn("failed to save screenshot", "err", err)
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	flappy.Render(m.screen, m.sched, m.generation)

	switch state := m.sched.State(); {
	case m.paused:
		drawCenteredMessage(m.screen, "PAUSED", "Press P to resume")
	case state.Terminated() && m.restart != nil:
		title := fmt.Sprintf("GAME OVER  Score: %d  Best: %d", m.sched.Score(), m.highScore)
		if state == flappy.StateScoreThresholdReached {
			title = fmt.Sprintf("YOU WIN  Score: %d", m.sched.Score())
		}
		drawCenteredMessage(m.screen, title, "R to restart, Q to quit")
	}

	var sb strings.Builder
	sb.WriteString(RenderScreen(m.screen))
	sb.WriteRune('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// Play runs keyboard play until the player quits.
func Play(cfg config.Config, rt core.RuntimeConfig, store *storage.Store, logger *log.Logger) error {
	seed := rt.Seed
	restart := func() (*flappy.Scheduler, error) {
		c := cfg
		c.World.Seed = seed
		if c.World.Seed == 0 {
			c.World.Seed = time.Now().UnixNano()
		}
		// Restarts always get a new layout
		seed = 0
		return flappy.NewScheduler(c, config.ModeManual, nil, flappy.WithLogger(logger))
	}

	model, err := NewPlayModel(restart, store, rt, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// Watch presents a batch scheduler until its run ends and returns the
// outcome. Quitting the window or cancelling ctx ends the run as a manual
// quit.
func Watch(ctx context.Context, s *flappy.Scheduler, generation int, rt core.RuntimeConfig, logger *log.Logger) (flappy.Result, error) {
	model := NewWatchModel(s, generation, rt, logger)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return s.Result(), err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return s.Result(), fm.err
	}
	if !s.State().Terminated() {
		quit := core.NewInputFrame()
		quit.Set(core.ActionQuit)
		if _, err := s.Step(quit); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}

// WatchRunner returns a trainer run function that presents every generation.
func WatchRunner(rt core.RuntimeConfig, logger *log.Logger) func(context.Context, *flappy.Scheduler, int) (flappy.Result, error) {
	return func(ctx context.Context, s *flappy.Scheduler, generation int) (flappy.Result, error) {
		return Watch(ctx, s, generation, rt, logger)
	}
}
