// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package scenes ships the built-in scenes the core depends on: clear,
// solid-fill, and startup-info (§6). They are ordinary scenes, built
// against exactly the same Scene/Context contract any plug-in scene
// uses.
package scenes

import (
	"context"

	"github.com/galvanized/ledmx"
)

// ClearName is the registered name of the built-in empty scene Reset
// switches a device to.
const ClearName = "clear"

// Clear returns the built-in empty scene: it clears the buffer, pushes
// once, and goes idle. Required because Reset (§6) is defined in terms
// of switching to it.
func Clear() *ledmx.Scene {
	return &ledmx.Scene{
		Name:      ClearName,
		WantsLoop: false,
		Render: func(_ context.Context, sc *ledmx.Context) (ledmx.RenderOutcome, error) {
			sc.Buffer.Clear()
			if _, err := sc.Push(context.Background()); err != nil {
				return ledmx.RenderOutcome{}, err
			}
			return ledmx.RenderOutcome{Done: true}, nil
		},
	}
}
