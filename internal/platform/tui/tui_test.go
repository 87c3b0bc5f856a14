package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/core"
	"github.com/vovakirdan/flappy-neat/internal/flappy"
	_ "github.com/vovakirdan/flappy-neat/internal/policy"
	"github.com/vovakirdan/flappy-neat/internal/storage"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runtimeConfig() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 60, ScreenH: 20, TickRate: 30, Seed: 7}
}

func ticks(m Model, n int) Model {
	for range n {
		next, _ := m.Update(TickMsg(time.Time{}))
		m = next.(Model)
	}
	return m
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func manualRestart(t *testing.T) func() (*flappy.Scheduler, error) {
	t.Helper()
	cfg := config.Default(config.ModeManual)
	cfg.World.Seed = 7
	return func() (*flappy.Scheduler, error) {
		return flappy.NewScheduler(cfg, config.ModeManual, nil)
	}
}

func watchScheduler(t *testing.T) *flappy.Scheduler {
	t.Helper()
	cfg := config.Default(config.ModeBatch)
	cfg.World.Seed = 42
	never := flappy.DeciderFunc(func(flappy.Observation) (float64, error) { return 0, nil })
	s, err := flappy.NewScheduler(cfg, config.ModeBatch, []flappy.Decider{never, never})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMapKeyToFrame(t *testing.T) {
	tests := []struct {
		name   string
		keys   KeyMap
		msg    tea.KeyMsg
		action core.Action
		frame  core.Action
	}{
		{"space jumps", PlayKeyMap(), tea.KeyMsg{Type: tea.KeySpace}, core.ActionJump, core.ActionJump},
		{"up jumps", PlayKeyMap(), tea.KeyMsg{Type: tea.KeyUp}, core.ActionJump, core.ActionJump},
		{"q quits", PlayKeyMap(), keyRunes("q"), core.ActionQuit, core.ActionQuit},
		{"ctrl+c quits", WatchKeyMap(), tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit, core.ActionQuit},
		{"p pauses", PlayKeyMap(), keyRunes("p"), core.ActionPause, core.ActionNone},
		{"watch ignores jump", WatchKeyMap(), tea.KeyMsg{Type: tea.KeySpace}, core.ActionNone, core.ActionNone},
		{"unbound key", PlayKeyMap(), keyRunes("x"), core.ActionNone, core.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := core.NewInputFrame()
			if got := tt.keys.MapKeyToFrame(tt.msg, &frame); got != tt.action {
				t.Errorf("MapKeyToFrame = %v, expected %v", got, tt.action)
			}
			if tt.frame != core.ActionNone && !frame.Has(tt.frame) {
				t.Errorf("frame should contain %v", tt.frame)
			}
			if tt.frame == core.ActionNone && len(frame.Actions) != 0 {
				t.Errorf("frame should be empty, got %v", frame.Actions)
			}
		})
	}
}

func TestMapKeyToMenuAction(t *testing.T) {
	tests := map[string]MenuAction{
		"q":     MenuActionQuit,
		"k":     MenuActionUp,
		"j":     MenuActionDown,
		"enter": MenuActionSelect,
		"tab":   MenuActionHistory,
		"x":     MenuActionNone,
	}
	msgs := map[string]tea.KeyMsg{
		"enter": {Type: tea.KeyEnter},
		"tab":   {Type: tea.KeyTab},
	}
	for k, want := range tests {
		msg, ok := msgs[k]
		if !ok {
			msg = keyRunes(k)
		}
		if got := MapKeyToMenuAction(msg); got != want {
			t.Errorf("MapKeyToMenuAction(%q) = %v, expected %v", k, got, want)
		}
	}
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(6, 3)
	s.DrawText(0, 0, "ab", core.ColorGreen)
	s.DrawText(2, 0, "cd", core.ColorGray)
	s.DrawText(0, 2, "xyz", core.ColorDefault)

	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 6 {
			t.Errorf("line %d: width %d, expected 6", i, w)
		}
	}
}

func TestWatchModelQuitsWhenRunEnds(t *testing.T) {
	m := NewWatchModel(watchScheduler(t), 3, runtimeConfig(), nil)
	if m.View() == "" {
		t.Fatal("view should not be empty while running")
	}

	m = ticks(m, 30)
	if got := m.Scheduler().State(); got != flappy.StateAllEliminated {
		t.Fatalf("state = %v, expected AllEliminated", got)
	}
	if m.Scheduler().Tick() != 21 {
		t.Errorf("run ended at tick %d, expected 21", m.Scheduler().Tick())
	}
	if m.View() != "" {
		t.Error("watch model should quit once the run ends")
	}
}

func TestWatchModelFastForward(t *testing.T) {
	m := NewWatchModel(watchScheduler(t), 1, runtimeConfig(), nil)
	m = press(m, keyRunes("f"))
	m = ticks(m, 1)
	if got := m.Scheduler().Tick(); got != fastSteps {
		t.Errorf("tick after one fast frame = %d, expected %d", got, fastSteps)
	}
}

func TestPlayModelQuit(t *testing.T) {
	m, err := NewPlayModel(manualRestart(t), nil, runtimeConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	m = ticks(m, 3)
	m = press(m, keyRunes("q"))

	if got := m.Scheduler().State(); got != flappy.StateManualQuit {
		t.Errorf("state = %v, expected ManualQuit", got)
	}
	if m.Scheduler().Tick() != 3 {
		t.Errorf("quit should not advance the run, tick = %d", m.Scheduler().Tick())
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestPlayModelPause(t *testing.T) {
	m, err := NewPlayModel(manualRestart(t), nil, runtimeConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	m = press(m, keyRunes("p"))
	m = ticks(m, 5)
	if m.Scheduler().Tick() != 0 {
		t.Errorf("paused run advanced to tick %d", m.Scheduler().Tick())
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("paused view should show the pause message")
	}

	m = press(m, keyRunes("p"))
	m = ticks(m, 5)
	if m.Scheduler().Tick() != 5 {
		t.Errorf("resumed run at tick %d, expected 5", m.Scheduler().Tick())
	}
}

func TestPlayModelDropsJumpWhilePaused(t *testing.T) {
	m, err := NewPlayModel(manualRestart(t), nil, runtimeConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Jump queued before pausing, and another pressed while paused
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	m = press(m, keyRunes("p"))
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if m.inputFrame.Has(core.ActionJump) {
		t.Fatal("paused model should not queue a jump")
	}

	m = press(m, keyRunes("p"))
	m = ticks(m, 1)
	start := config.Default(config.ModeManual).Agent.Y
	if y := m.Scheduler().Agents()[0].Y(); y <= start {
		t.Errorf("agent rose to y=%v on the first tick after resume, want it to fall from %v", y, start)
	}
}

func TestPlayModelRestart(t *testing.T) {
	m, err := NewPlayModel(manualRestart(t), nil, runtimeConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	m = ticks(m, 500)
	if !m.Scheduler().State().Terminated() {
		t.Fatal("an agent that never flaps should be eliminated")
	}
	if !strings.Contains(m.View(), "GAME OVER") {
		t.Error("view should show the game over message")
	}

	// Jumping is ignored once the run is over
	old := m.Scheduler()
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if m.Scheduler() != old {
		t.Fatal("only restart should replace the run")
	}

	m = press(m, keyRunes("r"))
	if m.Scheduler() == old {
		t.Fatal("restart should create a new run")
	}
	if m.Scheduler().Tick() != 0 || m.Scheduler().State() != flappy.StateRunning {
		t.Errorf("new run should start fresh, got tick %d state %v", m.Scheduler().Tick(), m.Scheduler().State())
	}
}

func TestMenuNavigation(t *testing.T) {
	m := NewMenuModel(runtimeConfig())
	if len(m.items) < 3 {
		t.Fatalf("menu should list play, policies and history, got %d items", len(m.items))
	}
	if m.items[0].Choice != ChoicePlay || m.items[len(m.items)-1].Choice != ChoiceHistory {
		t.Errorf("unexpected menu layout: %+v", m.items)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(MenuModel)
	if m.cursor != 0 {
		t.Errorf("cursor should stay at top, got %d", m.cursor)
	}

	next, _ = m.Update(keyRunes("j"))
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(MenuModel)
	sel := m.Selected()
	if sel == nil || sel.Choice != ChoiceWatch {
		t.Fatalf("expected a watch selection, got %+v", sel)
	}
	if sel.PolicyID != "heuristic" {
		t.Errorf("first policy = %q, expected heuristic", sel.PolicyID)
	}
}

func TestHistoryRows(t *testing.T) {
	rows := ScoreRows([]storage.ScoreEntry{
		{Score: 1234, Ticks: 56789, CreatedAt: time.Now()},
		{Score: 7, Ticks: 90, CreatedAt: time.Now()},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "#1" || rows[0][1] != "1,234" || rows[0][2] != "56,789" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][0] != "#2" {
		t.Errorf("unexpected rank: %v", rows[1][0])
	}

	sessions := SessionRows([]storage.SessionSummary{
		{Session: "3f2a9c1e-0000-4000-8000-000000000000", Generations: 12, BestScore: 4, Finished: time.Now()},
	})
	if sessions[0][0] != "3f2a9c1e" || sessions[0][1] != "12" || sessions[0][3] != "4" {
		t.Errorf("unexpected session row: %v", sessions[0])
	}
}

func TestHistoryTabs(t *testing.T) {
	m := NewHistoryModel(nil, 80, 24)
	if m.Tab() != TabScores {
		t.Fatalf("history should open on scores, got %v", m.Tab())
	}
	if !strings.Contains(m.View(), "No scores recorded yet.") {
		t.Error("empty scores tab should show the empty message")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(HistoryModel)
	if m.Tab() != TabSessions {
		t.Fatalf("tab should switch to sessions, got %v", m.Tab())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(HistoryModel)
	if m.Tab() != TabScores {
		t.Errorf("shift+tab should go back to scores, got %v", m.Tab())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !next.(HistoryModel).IsGoingBack() {
		t.Error("esc should go back")
	}
}
