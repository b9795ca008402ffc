// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package canvas

import (
	"image"

	ximage "golang.org/x/image/draw"
)

// BlendMode controls how a blitted image's color combines with the
// buffer's existing contents before the alpha-weighted OVER composite.
type BlendMode int

const (
	// BlendNormal composites the source color directly.
	BlendNormal BlendMode = iota
	// BlendMultiply multiplies source and destination channels before
	// compositing, darkening the result — useful for shadow/overlay
	// scenes layered on top of a lit background.
	BlendMultiply
)

// DrawImage decodes-agnostically blits img into the w x h rectangle
// anchored at x,y, resizing first if img's bounds differ from w,h.
// alphaMul further scales every source pixel's alpha (0 disables the
// blit entirely, 1 leaves it unchanged). Resizing uses CatmullRom when
// upscaling and ApproxBiLinear otherwise, both from
// golang.org/x/image/draw — the teacher's own golang.org/x/image
// dependency, here applied to 2D blits instead of 3D textures.
func (b *Buffer) DrawImage(img image.Image, x, y, w, h int, alphaMul float64, mode BlendMode) {
	if img == nil || w <= 0 || h <= 0 || alphaMul <= 0 {
		return
	}
	if alphaMul > 1 {
		alphaMul = 1
	}

	sb := img.Bounds()
	resized := img
	if sb.Dx() != w || sb.Dy() != h {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		scaler := ximage.ApproxBiLinear
		if w > sb.Dx() || h > sb.Dy() {
			scaler = ximage.CatmullRom
		}
		scaler.Scale(dst, dst.Bounds(), img, sb, ximage.Over, nil)
		resized = dst
	}

	rb := resized.Bounds()
	for py := 0; py < rb.Dy(); py++ {
		for px := 0; px < rb.Dx(); px++ {
			src := FromColor(resized.At(rb.Min.X+px, rb.Min.Y+py))
			if src.A == 0 {
				continue
			}
			src.A = uint8(float64(src.A) * alphaMul)
			if src.A == 0 {
				continue
			}
			if mode == BlendMultiply {
				dst := b.Get(x+px, y+py)
				src.R = uint8(uint32(src.R) * uint32(dst.R) / 255)
				src.G = uint8(uint32(src.G) * uint32(dst.G) / 255)
				src.B = uint8(uint32(src.B) * uint32(dst.B) / 255)
			}
			b.Pixel(x+px, y+py, src)
		}
	}
}
