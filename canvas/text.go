// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package canvas

// text.go groups the fixed 3x5 bitmap glyph rendering code, the scene
// drawing primitive's only text support per the spec's non-goal of "no
// rendering of vector graphics or fonts beyond a fixed 3x5 bitmap glyph
// set". Modeled on the teacher's font.char (x,y,w,h,xAdvance) but
// collapsed to literal bit patterns since there is no texture atlas here.

// Align controls how DrawText positions a string relative to origin.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// glyph is a fixed-height 5-row bitmap, width bits wide (left-aligned in
// each row), plus the horizontal advance used for the next character.
type glyph struct {
	rows    [5]uint8
	width   int
	advance int
}

var blankGlyph = glyph{width: 3, advance: 4}

// glyphs holds the fixed 3x5 (5x5 for M/W) set named in the spec:
// digits and letters advance 4px, M/W advance 5px, space/colon advance 3px.
var glyphs = map[rune]glyph{
	' ': {width: 0, advance: 3},
	':': {rows: [5]uint8{0b0, 0b1, 0b0, 0b1, 0b0}, width: 1, advance: 3},
	'.': {rows: [5]uint8{0b0, 0b0, 0b0, 0b0, 0b1}, width: 1, advance: 3},
	'-': {rows: [5]uint8{0b000, 0b000, 0b111, 0b000, 0b000}, width: 3, advance: 4},
	'/': {rows: [5]uint8{0b001, 0b001, 0b010, 0b100, 0b100}, width: 3, advance: 4},

	'0': {rows: [5]uint8{0b111, 0b101, 0b101, 0b101, 0b111}, width: 3, advance: 4},
	'1': {rows: [5]uint8{0b010, 0b110, 0b010, 0b010, 0b111}, width: 3, advance: 4},
	'2': {rows: [5]uint8{0b111, 0b001, 0b111, 0b100, 0b111}, width: 3, advance: 4},
	'3': {rows: [5]uint8{0b111, 0b001, 0b111, 0b001, 0b111}, width: 3, advance: 4},
	'4': {rows: [5]uint8{0b101, 0b101, 0b111, 0b001, 0b001}, width: 3, advance: 4},
	'5': {rows: [5]uint8{0b111, 0b100, 0b111, 0b001, 0b111}, width: 3, advance: 4},
	'6': {rows: [5]uint8{0b111, 0b100, 0b111, 0b101, 0b111}, width: 3, advance: 4},
	'7': {rows: [5]uint8{0b111, 0b001, 0b001, 0b001, 0b001}, width: 3, advance: 4},
	'8': {rows: [5]uint8{0b111, 0b101, 0b111, 0b101, 0b111}, width: 3, advance: 4},
	'9': {rows: [5]uint8{0b111, 0b101, 0b111, 0b001, 0b111}, width: 3, advance: 4},

	'A': {rows: [5]uint8{0b010, 0b101, 0b111, 0b101, 0b101}, width: 3, advance: 4},
	'B': {rows: [5]uint8{0b110, 0b101, 0b110, 0b101, 0b110}, width: 3, advance: 4},
	'C': {rows: [5]uint8{0b011, 0b100, 0b100, 0b100, 0b011}, width: 3, advance: 4},
	'D': {rows: [5]uint8{0b110, 0b101, 0b101, 0b101, 0b110}, width: 3, advance: 4},
	'E': {rows: [5]uint8{0b111, 0b100, 0b110, 0b100, 0b111}, width: 3, advance: 4},
	'F': {rows: [5]uint8{0b111, 0b100, 0b110, 0b100, 0b100}, width: 3, advance: 4},
	'G': {rows: [5]uint8{0b011, 0b100, 0b101, 0b101, 0b011}, width: 3, advance: 4},
	'H': {rows: [5]uint8{0b101, 0b101, 0b111, 0b101, 0b101}, width: 3, advance: 4},
	'I': {rows: [5]uint8{0b111, 0b010, 0b010, 0b010, 0b111}, width: 3, advance: 4},
	'J': {rows: [5]uint8{0b001, 0b001, 0b001, 0b101, 0b010}, width: 3, advance: 4},
	'K': {rows: [5]uint8{0b101, 0b101, 0b110, 0b101, 0b101}, width: 3, advance: 4},
	'L': {rows: [5]uint8{0b100, 0b100, 0b100, 0b100, 0b111}, width: 3, advance: 4},
	'M': {rows: [5]uint8{0b10001, 0b11011, 0b10101, 0b10001, 0b10001}, width: 5, advance: 5},
	'N': {rows: [5]uint8{0b101, 0b111, 0b111, 0b111, 0b101}, width: 3, advance: 4},
	'O': {rows: [5]uint8{0b111, 0b101, 0b101, 0b101, 0b111}, width: 3, advance: 4},
	'P': {rows: [5]uint8{0b111, 0b101, 0b111, 0b100, 0b100}, width: 3, advance: 4},
	'Q': {rows: [5]uint8{0b111, 0b101, 0b101, 0b111, 0b001}, width: 3, advance: 4},
	'R': {rows: [5]uint8{0b111, 0b101, 0b111, 0b110, 0b101}, width: 3, advance: 4},
	'S': {rows: [5]uint8{0b011, 0b100, 0b111, 0b001, 0b110}, width: 3, advance: 4},
	'T': {rows: [5]uint8{0b111, 0b010, 0b010, 0b010, 0b010}, width: 3, advance: 4},
	'U': {rows: [5]uint8{0b101, 0b101, 0b101, 0b101, 0b111}, width: 3, advance: 4},
	'V': {rows: [5]uint8{0b101, 0b101, 0b101, 0b101, 0b010}, width: 3, advance: 4},
	'W': {rows: [5]uint8{0b10001, 0b10001, 0b10101, 0b11011, 0b10001}, width: 5, advance: 5},
	'X': {rows: [5]uint8{0b101, 0b101, 0b010, 0b101, 0b101}, width: 3, advance: 4},
	'Y': {rows: [5]uint8{0b101, 0b101, 0b010, 0b010, 0b010}, width: 3, advance: 4},
	'Z': {rows: [5]uint8{0b111, 0b001, 0b010, 0b100, 0b111}, width: 3, advance: 4},
}

func glyphFor(r rune) glyph {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if g, ok := glyphs[r]; ok {
		return g
	}
	return blankGlyph
}

// TextWidth returns the pixel width of s as DrawText would render it,
// summing each glyph's horizontal advance. Scenes rely on this for
// positioning backdrops before the text itself is drawn.
func TextWidth(s string) int {
	w := 0
	for _, r := range s {
		w += glyphFor(r).advance
	}
	return w
}

// DrawText renders s using the fixed 3x5 glyph set, blending c over each
// lit cell, anchored at origin according to align. It returns the pixel
// width of the rendered string (same as TextWidth(s)).
func (b *Buffer) DrawText(s string, x, y int, c Color, align Align) int {
	width := TextWidth(s)
	switch align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	pen := x
	for _, r := range s {
		g := glyphFor(r)
		for row := 0; row < 5; row++ {
			bits := g.rows[row]
			for col := 0; col < g.width; col++ {
				shift := uint(g.width - 1 - col)
				if bits&(1<<shift) != 0 {
					b.Pixel(pen+col, y+row, c)
				}
			}
		}
		pen += g.advance
	}
	return width
}
