// Package mask implements boolean pixel silhouettes and the translated
// overlap test used for pixel-accurate collision.
package mask

import (
	"fmt"

	"github.com/vovakirdan/flappy-neat/internal/core"
)

// Mask is a width x height grid of occupied pixels, stored row-major.
type Mask struct {
	w, h int
	bits []bool
}

// New creates an empty mask.
func New(w, h int) *Mask {
	if w < 0 || h < 0 {
		panic(fmt.Sprintf("mask: invalid size %dx%d", w, h))
	}
	return &Mask{w: w, h: h, bits: make([]bool, w*h)}
}

// FromRows builds a mask from text rows where any rune other than '.' or ' '
// marks an occupied pixel. All rows must have the same length.
func FromRows(rows ...string) (*Mask, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	w := len([]rune(rows[0]))
	m := New(w, len(rows))
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != w {
			return nil, fmt.Errorf("mask: row %d has width %d, expected %d", y, len(runes), w)
		}
		for x, r := range runes {
			if r != '.' && r != ' ' {
				m.Set(x, y, true)
			}
		}
	}
	return m, nil
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.w }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.h }

// Bounds returns the mask rectangle anchored at the origin.
func (m *Mask) Bounds() core.Rect {
	return core.NewRect(0, 0, m.w, m.h)
}

// Get reports whether (x, y) is occupied. Out-of-range pixels are empty.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || x >= m.w || y < 0 || y >= m.h {
		return false
	}
	return m.bits[y*m.w+x]
}

// Set marks or clears a pixel. Out-of-range pixels are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || x >= m.w || y < 0 || y >= m.h {
		return
	}
	m.bits[y*m.w+x] = on
}

// Count returns the number of occupied pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// FlipVertical returns a copy of m mirrored top to bottom.
func (m *Mask) FlipVertical() *Mask {
	out := New(m.w, m.h)
	for y := 0; y < m.h; y++ {
		copy(out.bits[(m.h-1-y)*m.w:(m.h-y)*m.w], m.bits[y*m.w:(y+1)*m.w])
	}
	return out
}

// Overlap tests m against other placed at offset (dx, dy) relative to m's
// top-left corner. It returns the first shared pixel in m's coordinates,
// scanning row by row.
func (m *Mask) Overlap(other *Mask, dx, dy int) (x, y int, ok bool) {
	region := m.Bounds().Intersect(other.Bounds().Translate(dx, dy))
	if region.Empty() {
		return 0, 0, false
	}
	for py := region.Y; py < region.Bottom(); py++ {
		row := m.bits[py*m.w : (py+1)*m.w]
		orow := other.bits[(py-dy)*other.w : (py-dy+1)*other.w]
		for px := region.X; px < region.Right(); px++ {
			if row[px] && orow[px-dx] {
				return px, py, true
			}
		}
	}
	return 0, 0, false
}

// Overlaps reports whether m and other share any pixel at offset (dx, dy).
func (m *Mask) Overlaps(other *Mask, dx, dy int) bool {
	_, _, ok := m.Overlap(other, dx, dy)
	return ok
}
