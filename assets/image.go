// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package assets

import (
	"image"
	"image/gif"
	"image/png"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

// Decode reads the first frame of a PNG or GIF image from r. The format is
// chosen from name's extension, matching the teacher's load.Png which
// delegates straight to image/png.Decode for the same "caller opens and
// closes the reader" contract.
func Decode(name string, r io.Reader) (image.Image, error) {
	ext := ""
	if sep := strings.LastIndexAny(name, "."); sep != -1 {
		ext = strings.ToUpper(name[sep+1:])
	}
	switch ext {
	case "PNG":
		img, err := png.Decode(r)
		if err != nil {
			return nil, xerrors.Errorf("assets: decode png %q: %w", name, err)
		}
		return img, nil
	case "GIF":
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, xerrors.Errorf("assets: decode gif %q: %w", name, err)
		}
		if len(g.Image) == 0 {
			return nil, xerrors.Errorf("assets: gif %q has no frames", name)
		}
		return g.Image[0], nil
	default:
		return nil, xerrors.Errorf("assets: unsupported image type for %q", name)
	}
}
