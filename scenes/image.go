// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package scenes

import (
	"context"
	"image"

	"github.com/galvanized/ledmx"
	"github.com/galvanized/ledmx/assets"
	"github.com/galvanized/ledmx/canvas"
)

// ImageName is the registered name of the image-blit scene.
const ImageName = "image"

// Image returns a scene that decodes a PNG/GIF from loc (the read-only
// media directory, §6) and blits it full-frame on every switch. The
// payload key "file" names the asset; decoding happens once per switch
// during Init and is cached in the scene's own state slot, so a
// malformed or missing file surfaces as a scene error (kind 4) to that
// one activation, not to the scheduler.
func Image(loc assets.Locator) *ledmx.Scene {
	return &ledmx.Scene{
		Name: ImageName,
		Init: func(_ context.Context, sc *ledmx.Context) error {
			name, _ := sc.Payload["file"].(string)
			if name == "" {
				return nil // render draws nothing; not a decode error
			}
			r, err := loc.Open(name)
			if err != nil {
				return err
			}
			defer r.Close()
			img, err := assets.Decode(name, r)
			if err != nil {
				return err
			}
			sc.SetState(img)
			return nil
		},
		Render: func(_ context.Context, sc *ledmx.Context) (ledmx.RenderOutcome, error) {
			sc.Buffer.Clear()
			if img, ok := sc.GetState().(image.Image); ok {
				alpha := 1.0
				if a, ok := sc.Payload["alpha"].(float64); ok {
					alpha = a
				}
				sc.Buffer.DrawImage(img, 0, 0, sc.Buffer.Width(), sc.Buffer.Height(), alpha, canvas.BlendNormal)
			}
			if _, err := sc.Push(context.Background()); err != nil {
				return ledmx.RenderOutcome{}, err
			}
			return ledmx.RenderOutcome{Done: true}, nil
		},
	}
}
