// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package scenes

import (
	"context"

	"github.com/galvanized/ledmx"
	"github.com/galvanized/ledmx/canvas"
)

// SolidFillName is the registered name of the built-in solid-fill scene.
const SolidFillName = "solid-fill"

// SolidFill returns the built-in solid-fill scene: it fills the whole
// buffer with a color taken from the switch/update payload ("r", "g",
// "b", optional "a", each 0-255; default opaque white) and pushes
// once. It re-reads its color whenever it is (re-)started, matching
// §8's "SwitchScene to the already-active scene is equivalent to
// UpdateState ... plus a forced re-init".
func SolidFill() *ledmx.Scene {
	return &ledmx.Scene{
		Name:      SolidFillName,
		WantsLoop: false,
		Render: func(_ context.Context, sc *ledmx.Context) (ledmx.RenderOutcome, error) {
			c := colorFromPayload(sc.Payload)
			for y := 0; y < sc.Buffer.Height(); y++ {
				for x := 0; x < sc.Buffer.Width(); x++ {
					sc.Buffer.Set(x, y, c)
				}
			}
			if _, err := sc.Push(context.Background()); err != nil {
				return ledmx.RenderOutcome{}, err
			}
			return ledmx.RenderOutcome{Done: true}, nil
		},
	}
}

func colorFromPayload(payload map[string]any) canvas.Color {
	c := canvas.Color{R: 255, G: 255, B: 255, A: 255}
	if payload == nil {
		return c
	}
	if v, ok := payloadByte(payload, "r"); ok {
		c.R = v
	}
	if v, ok := payloadByte(payload, "g"); ok {
		c.G = v
	}
	if v, ok := payloadByte(payload, "b"); ok {
		c.B = v
	}
	if v, ok := payloadByte(payload, "a"); ok {
		c.A = v
	}
	return c
}

// payloadByte reads a 0-255 channel value out of a command payload.
// Payloads arrive from an external, transport-agnostic source and may
// carry the value as any numeric type a JSON decoder could have
// produced, so this accepts the common ones rather than requiring a
// specific Go type.
func payloadByte(payload map[string]any, key string) (uint8, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint8:
		return n, true
	case int:
		return clampByte(n), true
	case int64:
		return clampByte(int(n)), true
	case float64:
		return clampByte(int(n)), true
	default:
		return 0, false
	}
}

func clampByte(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
