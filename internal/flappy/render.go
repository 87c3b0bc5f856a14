package flappy

import (
	"fmt"

	"github.com/vovakirdan/flappy-neat/internal/core"
)

// Visual characters for rendering
const (
	PipeChar      = '█'
	PipeCapTop    = '▄'
	PipeCapBottom = '▀'
	GroundChar    = '▒'
	GroundAltChar = '░'
)

// wingChars maps Agent.Frame to a glyph.
var wingChars = [3]rune{'▼', '●', '▲'}

// Render draws the run scaled to dst. The generation is drawn in the HUD
// when positive.
func Render(dst *core.Screen, s *Scheduler, generation int) {
	dst.Clear()
	w := s.cfg.World
	if dst.Width() == 0 || dst.Height() == 0 {
		return
	}
	sx := float64(dst.Width()) / float64(w.Width)
	sy := float64(dst.Height()) / float64(w.Height)
	col := func(x int) int { return int(float64(x) * sx) }
	row := func(y float64) int { return int(y * sy) }

	groundRow := row(float64(w.GroundY))
	for _, p := range s.pipes {
		drawPipe(dst, col(p.x), col(p.x+p.Width()), row(float64(p.gapY)), row(float64(p.bottom)), groundRow)
	}

	drawGround(dst, s.strip, groundRow, sx)

	for _, a := range s.active {
		cx := col(a.x + s.cfg.Agent.Width/2)
		cy := row(a.y + float64(s.cfg.Agent.Height)/2)
		dst.Set(cx, cy, wingChars[a.Frame()], core.ColorBrightYellow)
	}

	dst.DrawTextRight(dst.Width()-1, 0, fmt.Sprintf(" Score: %d ", s.score), core.ColorWhite)
	if generation > 0 {
		dst.DrawText(1, 0, fmt.Sprintf(" Gen: %d ", generation), core.ColorWhite)
		dst.DrawText(1, 1, fmt.Sprintf(" Alive: %d ", len(s.active)), core.ColorGray)
	}
}

// drawPipe fills columns [x0, x1) above gapRow and from bottomRow to the
// ground, with a cap on each opening.
func drawPipe(dst *core.Screen, x0, x1, gapRow, bottomRow, groundRow int) {
	if x1 <= x0 {
		x1 = x0 + 1
	}
	for x := x0; x < x1; x++ {
		for y := 0; y < gapRow; y++ {
			dst.Set(x, y, PipeChar, core.ColorGreen)
		}
		if gapRow > 0 {
			dst.Set(x, gapRow-1, PipeCapTop, core.ColorBrightGreen)
		}
		for y := bottomRow; y < groundRow; y++ {
			dst.Set(x, y, PipeChar, core.ColorGreen)
		}
		if bottomRow < groundRow {
			dst.Set(x, bottomRow, PipeCapBottom, core.ColorBrightGreen)
		}
	}
}

// drawGround shades the strip with alternating bands that follow the tile
// offsets so scrolling is visible.
func drawGround(dst *core.Screen, st *Strip, groundRow int, sx float64) {
	x1, _ := st.Segments()
	band := st.Width() / 8
	if band <= 0 {
		band = 1
	}
	for y := groundRow; y < dst.Height(); y++ {
		for c := 0; c < dst.Width(); c++ {
			worldX := int(float64(c)/sx) - x1
			ch := GroundChar
			if ((worldX%st.Width()+st.Width())%st.Width()/band)%2 == 1 {
				ch = GroundAltChar
			}
			dst.Set(c, y, ch, core.ColorOrange)
		}
	}
}
