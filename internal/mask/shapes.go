package mask

// Ellipse returns a mask filled with the ellipse inscribed in a w x h box.
// Pixel centers are tested, so every row and column of the box is touched.
func Ellipse(w, h int) *Mask {
	m := New(w, h)
	rx, ry := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx := (float64(x) + 0.5 - rx) / rx
			ny := (float64(y) + 0.5 - ry) / ry
			if nx*nx+ny*ny <= 1 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// Pipe returns a pipe silhouette opening upward: a full-width lip of lipH
// rows on top of a body inset by inset pixels on each side.
func Pipe(w, h, lipH, inset int) *Mask {
	m := New(w, h)
	for y := 0; y < h; y++ {
		x0, x1 := inset, w-inset
		if y < lipH {
			x0, x1 = 0, w
		}
		for x := x0; x < x1; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// Rect returns a fully occupied w x h mask.
func Rect(w, h int) *Mask {
	m := New(w, h)
	for i := range m.bits {
		m.bits[i] = true
	}
	return m
}
