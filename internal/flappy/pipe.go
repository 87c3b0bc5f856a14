package flappy

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/flappy-neat/internal/config"
	"github.com/vovakirdan/flappy-neat/internal/mask"
)

// pipeShape holds the geometry shared by every pipe of a run.
type pipeShape struct {
	width  int
	height int
	gap    int
	top    *mask.Mask // Opening faces down
	bottom *mask.Mask // Opening faces up
}

func newPipeShape(cfg config.ObstacleConfig) *pipeShape {
	bottom := mask.Pipe(cfg.Width, cfg.Height, cfg.LipHeight, cfg.LipInset)
	return &pipeShape{
		width:  cfg.Width,
		height: cfg.Height,
		gap:    cfg.Gap,
		top:    bottom.FlipVertical(),
		bottom: bottom,
	}
}

// Pipe is an obstacle pair: a top pipe ending at GapY and a bottom pipe
// starting Gap pixels below it.
type Pipe struct {
	x      int
	gapY   int // Bottom edge of the top pipe, fixed at creation
	top    int // Top edge of the top pipe
	bottom int // Top edge of the bottom pipe
	passed bool
	shape  *pipeShape
}

// newPipe places a pipe with a gap drawn uniformly from [gapMin, gapMax).
func newPipe(x int, rng *rand.Rand, cfg config.ObstacleConfig, shape *pipeShape) (*Pipe, error) {
	if cfg.GapMax <= cfg.GapMin {
		return nil, fmt.Errorf("%w: empty gap range [%d, %d)", ErrInvariant, cfg.GapMin, cfg.GapMax)
	}
	return newPipeAt(x, cfg.GapMin+rng.Intn(cfg.GapMax-cfg.GapMin), shape)
}

func newPipeAt(x, gapY int, shape *pipeShape) (*Pipe, error) {
	if shape.gap <= 0 {
		return nil, fmt.Errorf("%w: pipe gap %d", ErrInvariant, shape.gap)
	}
	return &Pipe{
		x:      x,
		gapY:   gapY,
		top:    gapY - shape.height,
		bottom: gapY + shape.gap,
		shape:  shape,
	}, nil
}

// X returns the left edge.
func (p *Pipe) X() int { return p.x }

// Width returns the pipe width in pixels.
func (p *Pipe) Width() int { return p.shape.width }

// GapY returns the bottom edge of the top pipe.
func (p *Pipe) GapY() int { return p.gapY }

// Top returns the top edge of the top pipe (usually above the screen).
func (p *Pipe) Top() int { return p.top }

// Bottom returns the top edge of the bottom pipe.
func (p *Pipe) Bottom() int { return p.bottom }

// Passed reports whether an agent has gone past this pipe.
func (p *Pipe) Passed() bool { return p.passed }

// Advance moves the pipe left by velocity pixels.
func (p *Pipe) Advance(velocity int) {
	p.x -= velocity
}

// ScrolledOff reports whether the whole pipe is left of the screen.
func (p *Pipe) ScrolledOff() bool {
	return p.x+p.shape.width < 0
}

// markPassed sets the passed flag. It returns true only on the first call.
func (p *Pipe) markPassed() bool {
	if p.passed {
		return false
	}
	p.passed = true
	return true
}
