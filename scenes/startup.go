// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package scenes

import (
	"context"
	"strconv"

	"github.com/galvanized/ledmx"
	"github.com/galvanized/ledmx/canvas"
)

// StartupInfoName is the registered name of the built-in boot-banner
// scene required for a device's initial state (§6).
const StartupInfoName = "startup-info"

// StartupInfo returns the built-in scene that draws the device's host
// and geometry across two lines and pushes once. It is the scene a
// Device starts in before any external command arrives.
func StartupInfo() *ledmx.Scene {
	white := canvas.Color{R: 255, G: 255, B: 255, A: 255}
	return &ledmx.Scene{
		Name:      StartupInfoName,
		WantsLoop: false,
		Render: func(_ context.Context, sc *ledmx.Context) (ledmx.RenderOutcome, error) {
			sc.Buffer.Clear()
			w := sc.Buffer.Width()
			sc.Buffer.DrawText(sc.Env.Host, w/2, 1, white, canvas.AlignCenter)
			dims := formatDims(sc.Env.Width, sc.Env.Height)
			sc.Buffer.DrawText(dims, w/2, 7, white, canvas.AlignCenter)
			if _, err := sc.Push(context.Background()); err != nil {
				return ledmx.RenderOutcome{}, err
			}
			return ledmx.RenderOutcome{Done: true}, nil
		},
	}
}

func formatDims(w, h int) string {
	return strconv.Itoa(w) + "X" + strconv.Itoa(h)
}
