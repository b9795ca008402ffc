// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package transport

import (
	"context"
	"sync"
	"time"

	"golang.org/x/xerrors"
)

// Mock validates the incoming frame's byte length, sleeps for a
// configurable simulated push duration, and records the frame in memory
// so tests can assert on what a scene actually pushed. It is the
// transport every §8 end-to-end scenario runs against.
type Mock struct {
	mu       sync.Mutex
	delay    time.Duration
	frames   map[string]Frame
	pushes   map[string]int
	failNext map[string]bool
}

// NewMock returns a Mock that sleeps delay before completing each push.
func NewMock(delay time.Duration) *Mock {
	return &Mock{
		delay:    delay,
		frames:   map[string]Frame{},
		pushes:   map[string]int{},
		failNext: map[string]bool{},
	}
}

// SetDelay changes the simulated push duration, letting a running test
// provoke the fixed-cadence self-correction scenario (§8 scenario 2)
// mid-run.
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// FailNextPush makes the next Push for deviceID return an error instead
// of completing, for exercising transport-error handling (§7 kind 3).
func (m *Mock) FailNextPush(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[deviceID] = true
}

// Push implements Transport.
func (m *Mock) Push(ctx context.Context, deviceID string, frame Frame) (time.Duration, error) {
	want := frame.Width * frame.Height * 3
	if len(frame.RGB) != want {
		return 0, xerrors.Errorf("mock transport: frame for %s has %d bytes, want %d", deviceID, len(frame.RGB), want)
	}

	m.mu.Lock()
	delay := m.delay
	fail := m.failNext[deviceID]
	m.failNext[deviceID] = false
	m.mu.Unlock()

	start := time.Now()
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}
	elapsed := time.Since(start)

	if fail {
		return elapsed, xerrors.New("mock transport: simulated push failure")
	}

	m.mu.Lock()
	m.frames[deviceID] = frame
	m.pushes[deviceID]++
	m.mu.Unlock()
	return elapsed, nil
}

// PushCount returns how many successful pushes deviceID has received.
func (m *Mock) PushCount(deviceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes[deviceID]
}

// LastFrame returns the most recently pushed frame for deviceID.
func (m *Mock) LastFrame(deviceID string) (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[deviceID]
	return f, ok
}
