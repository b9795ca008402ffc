// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package canvas implements the per-device framebuffer and the drawing
// primitives scenes use to populate it: pixel/rect/line shapes, a fixed
// 3x5 bitmap font, and alpha-blended image blits. Nothing here talks to
// a transport; a Buffer is purely an offscreen pixel grid until its owner
// (ledmx.Device) snapshots and diffs it for a push.
package canvas

import "image/color"

// Color is a straight (non-premultiplied) alpha RGBA pixel, matching the
// spec's "RGBA cells" data model. Transparent-black, the Buffer's zero
// value, is Color{}.
type Color struct {
	R, G, B, A uint8
}

// Transparent is the zero-value cell every Buffer starts and Clears to.
var Transparent = Color{}

// Over composites src over dst using the standard straight-alpha OVER
// operator:
//
//	out.A = src.A + dst.A*(255-src.A)/255
//	out.C = (src.C*src.A + dst.C*dst.A*(255-src.A)/255) / out.A
//
// Once a fully opaque pixel (src.A == 255) is drawn, out.A saturates to
// 255 and stays there for any further blends, since out.A can never
// exceed 255 and a dst.A of 255 with any src.A keeps out.A at 255.
func Over(dst, src Color) Color {
	if src.A == 0 {
		return dst
	}
	if src.A == 255 {
		return src
	}
	sa := uint32(src.A)
	da := uint32(dst.A)
	outA := sa + da*(255-sa)/255
	if outA == 0 {
		return Color{}
	}
	blend := func(sc, dc uint8) uint8 {
		s := uint32(sc)
		d := uint32(dc)
		num := s*sa + d*da*(255-sa)/255
		return uint8(num / outA)
	}
	return Color{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: uint8(outA),
	}
}

// toRGBA converts the straight-alpha Color to the stdlib's
// alpha-premultiplied color.RGBA, the representation image.Image and
// image/draw expect from ColorModel/At.
func (c Color) toRGBA() color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

// FromColor converts an arbitrary stdlib color.Color into a straight-alpha
// Color, going through color.NRGBAModel so premultiplied sources (the
// common case for decoded PNG/GIF frames) come out correct.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}
