package flappy

// Strip is the scrolling ground: two tiles side by side, each wrapped to
// trail the other once it leaves the screen.
type Strip struct {
	y        int
	width    int
	velocity int
	x1, x2   int
}

// NewStrip creates a strip at height y with tiles of the given width.
func NewStrip(y, width, velocity int) *Strip {
	return &Strip{y: y, width: width, velocity: velocity, x1: 0, x2: width}
}

// Y returns the top of the strip.
func (s *Strip) Y() int { return s.y }

// Width returns the width of one tile.
func (s *Strip) Width() int { return s.width }

// Segments returns the left edges of both tiles.
func (s *Strip) Segments() (int, int) { return s.x1, s.x2 }

// Advance scrolls both tiles and wraps any tile fully offscreen.
func (s *Strip) Advance() {
	s.x1 -= s.velocity
	s.x2 -= s.velocity

	if s.x1+s.width < 0 {
		s.x1 = s.x2 + s.width
	}
	if s.x2+s.width < 0 {
		s.x2 = s.x1 + s.width
	}
}

// Covers reports whether the tiles leave no gap across [0, viewWidth).
func (s *Strip) Covers(viewWidth int) bool {
	a, b := s.x1, s.x2
	if b < a {
		a, b = b, a
	}
	// Left tile must start at or before the origin and meet the right tile
	return a <= 0 && a+s.width >= b && b+s.width >= viewWidth
}
