// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package ledmx drives small LED-matrix displays over an HTTP-style
// device API, multiplexing independent rendering programs ("scenes")
// across multiple physical devices under external command.
//
// A Fleet holds one Device per configured panel. Each Device runs its
// own Scheduler: a single goroutine that owns the device's framebuffer,
// runs exactly one active Scene at a time, and drives the
// clear/draw/push cycle at a cadence the scene itself controls. Scenes
// are registered once at startup through a Registry (package-wide,
// fixed after registration) and are otherwise opaque plug-ins.
//
// Subpackages:
//   - ledmx/canvas covers the per-device pixel buffer and drawing
//     primitives scenes draw with.
//   - ledmx/transport covers the real (HTTP) and mock sinks a Scheduler
//     pushes frames through.
//   - ledmx/assets covers read-only media-directory access for scenes
//     that blit PNG/GIF images.
//   - ledmx/scenes ships the built-in clear, solid-fill, and
//     startup-info scenes the core depends on for Reset and initial
//     device state.
package ledmx
