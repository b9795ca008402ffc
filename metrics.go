// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import "time"

// MetricsEvent describes one completed push (§3, §6). Events for a
// given device are always emitted in the order their frames were
// pushed, even though devices proceed independently of one another.
type MetricsEvent struct {
	DeviceHost      string
	SceneName       string
	PushDurationMs  int64
	DiffPixelCount  int
	GenerationNum   uint64
	Timestamp       time.Time
}

// Publisher receives MetricsEvents as pushes complete. Implementations
// must not block the caller for long: Publish runs inside the push of
// the render that issued it, and a slow Publisher stalls that device's
// render loop (it never stalls other devices).
type Publisher interface {
	Publish(MetricsEvent)
}

// PublisherFunc adapts a plain function to a Publisher.
type PublisherFunc func(MetricsEvent)

// Publish implements Publisher.
func (f PublisherFunc) Publish(e MetricsEvent) { f(e) }

// discardPublisher is used when a Fleet is built without WithPublisher.
type discardPublisher struct{}

func (discardPublisher) Publish(MetricsEvent) {}
