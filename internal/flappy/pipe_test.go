package flappy

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/vovakirdan/flappy-neat/internal/config"
)

func TestPipeGeometry(t *testing.T) {
	cfg := config.Default(config.ModeBatch).Obstacles
	p, err := newPipeAt(600, 250, newPipeShape(cfg))
	if err != nil {
		t.Fatal(err)
	}

	if p.GapY() != 250 {
		t.Errorf("GapY = %d, want 250", p.GapY())
	}
	if p.Top() != 250-cfg.Height {
		t.Errorf("Top = %d, want %d", p.Top(), 250-cfg.Height)
	}
	if p.Bottom() != 450 {
		t.Errorf("Bottom = %d, want 450", p.Bottom())
	}
	if p.Width() != cfg.Width {
		t.Errorf("Width = %d, want %d", p.Width(), cfg.Width)
	}
}

func TestPipeGapWithinRange(t *testing.T) {
	cfg := config.Default(config.ModeBatch).Obstacles
	shape := newPipeShape(cfg)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		p, err := newPipe(cfg.SpawnX, rng, cfg, shape)
		if err != nil {
			t.Fatal(err)
		}
		if p.GapY() < cfg.GapMin || p.GapY() >= cfg.GapMax {
			t.Fatalf("gap %d outside [%d, %d)", p.GapY(), cfg.GapMin, cfg.GapMax)
		}
	}
}

func TestPipeInvalidGeometry(t *testing.T) {
	cfg := config.Default(config.ModeBatch).Obstacles

	empty := cfg
	empty.GapMax = empty.GapMin
	if _, err := newPipe(0, rand.New(rand.NewSource(1)), empty, newPipeShape(empty)); !errors.Is(err, ErrInvariant) {
		t.Errorf("empty gap range: err = %v, want ErrInvariant", err)
	}

	negative := cfg
	negative.Gap = -1
	if _, err := newPipeAt(0, 200, newPipeShape(negative)); !errors.Is(err, ErrInvariant) {
		t.Errorf("negative gap: err = %v, want ErrInvariant", err)
	}
}

func TestPipeAdvanceKeepsGap(t *testing.T) {
	cfg := config.Default(config.ModeBatch).Obstacles
	p, _ := newPipeAt(600, 123, newPipeShape(cfg))

	for i := 0; i < 80; i++ {
		p.Advance(cfg.Velocity)
		if p.GapY() != 123 || p.Bottom() != 323 {
			t.Fatalf("tick %d: gap moved to %d/%d", i, p.GapY(), p.Bottom())
		}
	}
	if p.X() != 600-80*cfg.Velocity {
		t.Errorf("X = %d, want %d", p.X(), 600-80*cfg.Velocity)
	}
}

func TestPipeScrolledOff(t *testing.T) {
	cfg := config.Default(config.ModeBatch).Obstacles
	shape := newPipeShape(cfg)

	tests := []struct {
		x    int
		want bool
	}{
		{0, false},
		{-cfg.Width + 1, false},
		{-cfg.Width, false},
		{-cfg.Width - 1, true},
	}
	for _, tt := range tests {
		p, _ := newPipeAt(tt.x, 200, shape)
		if got := p.ScrolledOff(); got != tt.want {
			t.Errorf("ScrolledOff at x=%d = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestPipePassedOnce(t *testing.T) {
	p, _ := newPipeAt(0, 200, newPipeShape(config.Default(config.ModeBatch).Obstacles))

	if p.Passed() {
		t.Fatal("new pipe already passed")
	}
	if !p.markPassed() {
		t.Error("first markPassed returned false")
	}
	for i := 0; i < 3; i++ {
		if p.markPassed() {
			t.Error("markPassed transitioned twice")
		}
		if !p.Passed() {
			t.Error("passed flag reset")
		}
	}
}

func TestStripCoversView(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		velocity int
		view     int
	}{
		{"batch", 672, 10, 500},
		{"manual", 672, 5, 500},
		{"odd velocity", 672, 7, 500},
		{"exact fit", 500, 9, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStrip(730, tt.width, tt.velocity)
			for i := 0; i < 2000; i++ {
				s.Advance()
				if !s.Covers(tt.view) {
					x1, x2 := s.Segments()
					t.Fatalf("tick %d: gap in ground, segments at %d and %d", i, x1, x2)
				}
			}
		})
	}
}

func TestStripWraps(t *testing.T) {
	s := NewStrip(730, 672, 10)
	for i := 0; i < 68; i++ {
		s.Advance()
	}
	x1, x2 := s.Segments()
	if x1 != 664 || x2 != -8 {
		t.Errorf("segments = (%d, %d), want (664, -8)", x1, x2)
	}
}
