// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"context"
	"sync"
	"time"

	"github.com/galvanized/ledmx/canvas"
)

// RenderOutcome is a scene render's return-value contract (§4.2): a
// non-negative Delay requests another tick after that many
// milliseconds (zero means "as soon as possible" — adaptive cadence);
// Done signals completion, and the scheduler will not tick again
// unless re-triggered by a command. Delay is only meaningful when Done
// is false.
type RenderOutcome struct {
	Delay time.Duration
	Done  bool
}

// Env is the read-only device info a Scene's Context exposes (§4.2).
type Env struct {
	Host   string
	Width  int
	Height int
}

// Context is the scheduler-supplied execution context passed to a
// scene's Init, Render, and Cleanup. Scenes must not retain it past the
// call it was handed to.
type Context struct {
	// Payload is the most recent command payload that selected or
	// updated this scene (SwitchScene's or UpdateState's payload).
	Payload map[string]any

	// LoopDriven is true when this call originated from the loop
	// ticker, false when it is the initial call from the switch.
	LoopDriven bool

	Env Env

	// Buffer is the device's drawing surface for this render. Scenes
	// mutate only this buffer; nothing reaches the transport until
	// Push is called.
	Buffer *canvas.Buffer

	sched      *Scheduler
	sceneName  string
	generation uint64
}

// GetState returns the scene's own state slot, scoped to (device,
// scene) and cleared when the scheduler switches away from this
// scene (§9: a typed slot the scene owns the shape of, not a
// key/value bag).
func (c *Context) GetState() any {
	return c.sched.getState(c.sceneName)
}

// SetState replaces the scene's state slot.
func (c *Context) SetState(v any) {
	c.sched.setState(c.sceneName, v)
}

// Push hands the current buffer to the transport (§4.4): it computes
// the diff against the last-pushed snapshot, dispatches the RGB bytes
// to the configured transport, awaits completion, and on success
// updates last-pushed and emits a MetricsEvent. It returns the
// diff-pixel count that was pushed (or would have been, had push not
// been elided).
func (c *Context) Push(ctx context.Context) (int, error) {
	return c.sched.push(ctx, c.sceneName, c.generation)
}

// Scene is a registered rendering program (§4.2): an init/render/
// cleanup triple plus a WantsLoop flag. Name and Render are required;
// Init, Cleanup, and DeviceType are optional.
type Scene struct {
	Name string

	// DeviceType, when non-empty, restricts this scene to devices
	// whose own DeviceType (as configured on the Device) matches.
	DeviceType string

	// WantsLoop, when false, means the scene is rendered once after
	// Init and its return value is ignored for scheduling: it becomes
	// idle immediately after the single render.
	WantsLoop bool

	Init    func(ctx context.Context, sc *Context) error
	Render  func(ctx context.Context, sc *Context) (RenderOutcome, error)
	Cleanup func(ctx context.Context, sc *Context) error
}

// Registry is a process-wide, name-keyed scene table. Registration is
// expected at startup and is fixed thereafter; Lookup is safe for
// concurrent use by every device's scheduler.
type Registry struct {
	mu     sync.RWMutex
	scenes map[string]*Scene
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scenes: map[string]*Scene{}}
}

// Register validates and adds s. It rejects scenes lacking Name or
// Render, and rejects a name already registered (§4.2).
func (r *Registry) Register(s *Scene) error {
	if s == nil || s.Name == "" || s.Render == nil {
		return ErrInvalidScene
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenes[s.Name]; exists {
		return ErrDuplicateScene
	}
	r.scenes[s.Name] = s
	return nil
}

// Lookup returns the scene registered under name, if any.
func (r *Registry) Lookup(name string) (*Scene, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenes[name]
	return s, ok
}
