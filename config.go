// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the process-wide knobs a Fleet and its Schedulers are
// built with. It is never mutated after NewFleet returns; per-device
// behavior differences are a property of the Device, not this Config.
//
// Grounded on the teacher's config.go: a zero-value struct plus a set
// of Attr functions applied in order, rather than a builder or a
// struct literal with every field spelled out at every call site.
type Config struct {
	Log zerolog.Logger

	// RenderCeiling is the deadline of the context handed to each scene
	// render (§5, optional hard ceiling); the push a scene issues is
	// bounded by it only when the scene passes that context on to Push.
	// A render that returns an error, such as the deadline's, puts the
	// scene to idle. The scheduler does not abandon a render that
	// ignores the context: it waits for it to return. Zero means no
	// ceiling.
	RenderCeiling time.Duration

	// InboxCapacity bounds the per-device command queue the Gateway
	// maintains (§5: "a bounded queue with backpressure").
	InboxCapacity int

	// Publisher receives a MetricsEvent for every completed push.
	Publisher Publisher
}

// Attr mutates a Config during construction. Following the teacher's
// own config.go convention, options are plain functions rather than an
// interface, so new knobs never break existing callers.
type Attr func(*Config)

// WithLogger overrides the default zerolog.Logger, a console writer on
// stdout.
func WithLogger(log zerolog.Logger) Attr {
	return func(c *Config) { c.Log = log }
}

// WithRenderCeiling sets the optional hard ceiling on render duration
// described in §5. d <= 0 disables the ceiling.
func WithRenderCeiling(d time.Duration) Attr {
	return func(c *Config) { c.RenderCeiling = d }
}

// WithInboxCapacity sets the per-device command queue depth the
// Gateway enforces. n <= 0 is treated as the default.
func WithInboxCapacity(n int) Attr {
	return func(c *Config) {
		if n > 0 {
			c.InboxCapacity = n
		}
	}
}

// WithPublisher overrides the default no-op metrics Publisher.
func WithPublisher(p Publisher) Attr {
	return func(c *Config) { c.Publisher = p }
}

func newConfig(attrs []Attr) *Config {
	c := &Config{
		Log:           zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger(),
		InboxCapacity: 8,
		Publisher:     discardPublisher{},
	}
	for _, a := range attrs {
		a(c)
	}
	return c
}
