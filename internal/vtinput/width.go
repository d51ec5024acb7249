package vtinput

import "github.com/unilibs/uniwidth"

// columnWidth sums the on-screen column width of a run of UTF-16
// units, combining surrogate pairs into their single rune before
// measuring. Generalizes the teacher's width.go from render-width
// measurement to cooked-editor echo-repaint measurement: the screen
// buffer's Cell model has no wide-glyph spacer concept (spec's Cell is
// one uint16 per cell), so this only corrects the cursor-column math
// the editor uses when repainting after an edit, not grid storage.
func columnWidth(units []uint16) int {
	width := 0
	for i := 0; i < len(units); i++ {
		u := units[i]
		r := rune(u)
		if IsSurrogateHigh(u) && i+1 < len(units) && IsSurrogateLow(units[i+1]) {
			r = combineSurrogates(u, units[i+1])
			i++
		}
		width += uniwidth.RuneWidth(r)
	}
	return width
}

func combineSurrogates(hi, lo uint16) rune {
	return rune(0x10000 + (int32(hi)-0xD800)<<10 + (int32(lo) - 0xDC00))
}
