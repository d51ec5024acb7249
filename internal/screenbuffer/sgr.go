package screenbuffer

import "github.com/condrv-project/condrv/internal/cellgrid"

// applySGR folds the accumulated CSI parameters into the current
// attribute word, left to right (spec §4.3.6).
func (sb *ScreenBuffer) applySGR() {
	params := sb.parser.csiParams
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			sb.textAttrs = sb.defaultTextAttrs
		case p == 1:
			sb.textAttrs |= 0x0008 // foreground intensity bit
		case p == 22:
			sb.textAttrs &^= 0x0008
		case p == 4:
			sb.textAttrs |= cellgrid.AttrUnderline
		case p == 24:
			sb.textAttrs &^= cellgrid.AttrUnderline
		case p == 7:
			sb.textAttrs |= cellgrid.AttrReverseVideo
		case p == 27:
			sb.textAttrs &^= cellgrid.AttrReverseVideo
		case p == 39:
			sb.textAttrs = (sb.textAttrs &^ cellgrid.AttrForegroundMask) | (sb.defaultTextAttrs & cellgrid.AttrForegroundMask)
		case p == 49:
			sb.textAttrs = (sb.textAttrs &^ cellgrid.AttrBackgroundMask) | (sb.defaultTextAttrs & cellgrid.AttrBackgroundMask)
		case p >= 30 && p <= 37:
			sb.setForeground(p-30, false)
		case p >= 90 && p <= 97:
			sb.setForeground(p-90, true)
		case p >= 40 && p <= 47:
			sb.setBackground(p-40, false)
		case p >= 100 && p <= 107:
			sb.setBackground(p-100, true)
		case p == 38 || p == 48:
			consumed := sb.applyExtendedColor(params[i:], p == 38)
			i += consumed
		}
	}
}

func (sb *ScreenBuffer) setForeground(idx int, bright bool) {
	if bright {
		idx |= 0x8
	}
	sb.textAttrs = (sb.textAttrs &^ cellgrid.AttrForegroundMask) | uint16(idx)&cellgrid.AttrForegroundMask
}

func (sb *ScreenBuffer) setBackground(idx int, bright bool) {
	if bright {
		idx |= 0x8
	}
	sb.textAttrs = (sb.textAttrs &^ cellgrid.AttrBackgroundMask) | (uint16(idx)<<cellgrid.AttrBackgroundShift)&cellgrid.AttrBackgroundMask
}

// applyExtendedColor consumes the `38;5;n`, `38;2;r;g;b` (and `48;...`)
// parameter forms starting at params[0] (which is 38 or 48). It
// returns the number of additional parameters consumed beyond
// params[0] so the caller can advance its loop index.
func (sb *ScreenBuffer) applyExtendedColor(params []int, fg bool) int {
	if len(params) < 2 {
		return 0
	}
	switch params[1] {
	case 5:
		if len(params) < 3 {
			return 1
		}
		sb.applyPaletteIndex(params[2], fg)
		return 2
	case 2:
		if len(params) < 5 {
			return len(params) - 1
		}
		idx := sb.nearestPaletteIndex(RGB{R: uint8(params[2]), G: uint8(params[3]), B: uint8(params[4])})
		sb.applyPaletteIndex(idx, fg)
		return 4
	}
	return 1
}

func (sb *ScreenBuffer) applyPaletteIndex(n int, fg bool) {
	var idx int
	if n < 16 {
		idx = n
	} else {
		idx = sb.nearestPaletteIndex(xterm256ToRGB(n))
	}
	if fg {
		sb.setForeground(idx&0x7, idx&0x8 != 0)
	} else {
		sb.setBackground(idx&0x7, idx&0x8 != 0)
	}
}

// xterm256ToRGB computes the RGB value for xterm-256 palette index n
// (n must be >= 16): the 6x6x6 color cube (16..231) and the grayscale
// ramp (232..255).
func xterm256ToRGB(n int) RGB {
	if n >= 232 {
		gray := uint8(8 + 10*(n-232))
		return RGB{R: gray, G: gray, B: gray}
	}
	n -= 16
	r := n / 36
	g := (n / 6) % 6
	b := n % 6
	return RGB{R: cubeComponent(r), G: cubeComponent(g), B: cubeComponent(b)}
}

func cubeComponent(k int) uint8 {
	if k == 0 {
		return 0
	}
	return uint8(55 + 40*k)
}

// nearestPaletteIndex snaps an RGB color to the nearest of the
// buffer's 16 palette entries by squared distance.
func (sb *ScreenBuffer) nearestPaletteIndex(c RGB) int {
	best := 0
	bestDist := -1
	for i, p := range sb.palette {
		dr := int(p.R) - int(c.R)
		dg := int(p.G) - int(c.G)
		db := int(p.B) - int(c.B)
		dist := dr*dr + dg*dg + db*db
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
