// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package canvas

import (
	"image"
	"image/color"
)

// Buffer is a per-device offscreen pixel grid. It implements image.Image
// so the standard image packages, and golang.org/x/image/draw in
// particular, can read from it the same way the pack's own
// gogpu-gg.Pixmap does for a plain RGBA pixel slice. Its Set takes a
// canvas Color, so it is not a draw.Image: image blits resize into a
// temporary image.RGBA first (see DrawImage).
type Buffer struct {
	w, h int
	pix  []Color
}

var _ image.Image = (*Buffer)(nil)

// NewBuffer allocates a w x h buffer, all cells Transparent.
func NewBuffer(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{w: w, h: h, pix: make([]Color, w*h)}
}

// Width and Height are the buffer's fixed dimensions.
func (b *Buffer) Width() int  { return b.w }
func (b *Buffer) Height() int { return b.h }

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

// At implements image.Image, returning alpha-premultiplied color.RGBA per
// the image.Image contract.
func (b *Buffer) At(x, y int) color.Color {
	return b.Get(x, y).toRGBA()
}

// Get returns the straight-alpha Color at x,y, or Transparent if the
// coordinate is outside the buffer.
func (b *Buffer) Get(x, y int) Color {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return Transparent
	}
	return b.pix[y*b.w+x]
}

// Set overwrites the cell at x,y with c, with no blending. Out-of-bounds
// coordinates are silently clipped (no-op), per the spec's boundary
// behavior for all drawing operations.
func (b *Buffer) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return
	}
	b.pix[y*b.w+x] = c
}

// Clear resets every cell to Transparent.
func (b *Buffer) Clear() {
	for i := range b.pix {
		b.pix[i] = Transparent
	}
}

// Clone returns an independent copy, used to take the push-time snapshot
// without holding a reference into the live buffer a scene might still be
// drawing into.
func (b *Buffer) Clone() *Buffer {
	cp := &Buffer{w: b.w, h: b.h, pix: make([]Color, len(b.pix))}
	copy(cp.pix, b.pix)
	return cp
}

// CopyFrom overwrites b's pixels with src's. Dimensions must match; this
// is used to fold a just-pushed snapshot back into the last-pushed buffer
// without a fresh allocation per push.
func (b *Buffer) CopyFrom(src *Buffer) {
	if src.w != b.w || src.h != b.h {
		return
	}
	copy(b.pix, src.pix)
}

// Diff counts the cells that differ between b and other. Differing
// dimensions count as every cell in the larger buffer differing.
func (b *Buffer) Diff(other *Buffer) int {
	if other == nil {
		return len(b.pix)
	}
	if other.w != b.w || other.h != b.h {
		if len(other.pix) > len(b.pix) {
			return len(other.pix)
		}
		return len(b.pix)
	}
	n := 0
	for i, c := range b.pix {
		if c != other.pix[i] {
			n++
		}
	}
	return n
}

// RGBBytes packs the buffer as width*height*3 bytes, row-major, top-left
// origin, dropping alpha — the wire format §6 specifies for the real
// transport (R,G,B per pixel, no alpha channel on the wire).
func (b *Buffer) RGBBytes() []byte {
	out := make([]byte, 0, b.w*b.h*3)
	for _, c := range b.pix {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}
