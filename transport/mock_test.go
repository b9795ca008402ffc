// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package transport

import (
	"context"
	"testing"
	"time"
)

func TestMockPushRecordsFrameAndCount(t *testing.T) {
	m := NewMock(0)
	frame := Frame{Width: 2, Height: 2, RGB: make([]byte, 12)}
	if _, err := m.Push(context.Background(), "dev1", frame); err != nil {
		t.Fatal(err)
	}
	if m.PushCount("dev1") != 1 {
		t.Errorf("push count = %d, want 1", m.PushCount("dev1"))
	}
	got, ok := m.LastFrame("dev1")
	if !ok || len(got.RGB) != 12 {
		t.Errorf("unexpected last frame: %+v ok=%v", got, ok)
	}
}

func TestMockPushRejectsWrongLength(t *testing.T) {
	m := NewMock(0)
	frame := Frame{Width: 2, Height: 2, RGB: make([]byte, 4)}
	if _, err := m.Push(context.Background(), "dev1", frame); err == nil {
		t.Error("expected error for mismatched byte length")
	}
}

func TestMockPushHonorsDelay(t *testing.T) {
	m := NewMock(20 * time.Millisecond)
	frame := Frame{Width: 1, Height: 1, RGB: make([]byte, 3)}
	start := time.Now()
	if _, err := m.Push(context.Background(), "dev1", frame); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("expected push to honor the simulated delay")
	}
}

func TestMockFailNextPush(t *testing.T) {
	m := NewMock(0)
	m.FailNextPush("dev1")
	frame := Frame{Width: 1, Height: 1, RGB: make([]byte, 3)}
	if _, err := m.Push(context.Background(), "dev1", frame); err == nil {
		t.Error("expected simulated failure")
	}
	if _, err := m.Push(context.Background(), "dev1", frame); err != nil {
		t.Errorf("failure flag should only apply once: %v", err)
	}
}

func TestMockPushCancelledContext(t *testing.T) {
	m := NewMock(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frame := Frame{Width: 1, Height: 1, RGB: make([]byte, 3)}
	if _, err := m.Push(ctx, "dev1", frame); err == nil {
		t.Error("expected context cancellation to abort the push")
	}
}
