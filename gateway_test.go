// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"context"
	"testing"
	"time"

	"github.com/galvanized/ledmx/canvas"
	"github.com/galvanized/ledmx/transport"
)

func pushingScene(name string, fill canvas.Color) *Scene {
	return &Scene{
		Name: name,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			sc.Buffer.Set(0, 0, fill)
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Done: true}, nil
		},
	}
}

func newGatewayFixture(t *testing.T) (*Gateway, *Fleet, *transport.Mock) {
	t.Helper()
	reg := NewRegistry()
	empty := pushingScene("empty", canvas.Transparent)
	if err := reg.Register(empty); err != nil {
		t.Fatal(err)
	}
	sceneA := pushingScene("a", canvas.Color{R: 1, A: 255})
	if err := reg.Register(sceneA); err != nil {
		t.Fatal(err)
	}
	mock := transport.NewMock(0)
	fleet := NewFleet()
	fleet.Add(NewDevice("dev1", 4, 4, mock))
	gw := NewGateway(fleet, reg, fleet.Config(), empty, map[string]DriverFactory{
		"mock": func(string) transport.Transport { return mock },
	})
	return gw, fleet, mock
}

func TestGatewayRejectsUnknownDevice(t *testing.T) {
	gw, _, _ := newGatewayFixture(t)
	err := gw.Dispatch(SwitchSceneCmd{Device: "nope", SceneName: "a"})
	if err != ErrUnknownDevice {
		t.Errorf("got %v, want ErrUnknownDevice", err)
	}
}

func TestGatewayRejectsUnknownScene(t *testing.T) {
	gw, _, _ := newGatewayFixture(t)
	err := gw.Dispatch(SwitchSceneCmd{Device: "dev1", SceneName: "nonexistent"})
	if err != ErrUnknownScene {
		t.Errorf("got %v, want ErrUnknownScene", err)
	}
}

func TestGatewayUpdateStateOnUnknownDeviceErrors(t *testing.T) {
	gw, _, _ := newGatewayFixture(t)
	err := gw.Dispatch(UpdateStateCmd{Device: "nope", Payload: map[string]any{}})
	if err != ErrUnknownDevice {
		t.Errorf("got %v, want ErrUnknownDevice", err)
	}
}

func TestGatewayResetSwitchesToEmptyScene(t *testing.T) {
	gw, _, mock := newGatewayFixture(t)
	if err := gw.Dispatch(SwitchSceneCmd{Device: "dev1", SceneName: "a"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for mock.PushCount("dev1") < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := gw.Dispatch(ResetCmd{Device: "dev1"}); err != nil {
		t.Fatal(err)
	}
	deadline = time.Now().Add(time.Second)
	for mock.PushCount("dev1") < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	frame, ok := mock.LastFrame("dev1")
	if !ok {
		t.Fatal("expected a frame after reset")
	}
	for _, b := range frame.RGB {
		if b != 0 {
			t.Errorf("expected reset to clear the frame, got nonzero byte")
			break
		}
	}
}

func TestGatewaySetDriverRejectsUnknownKind(t *testing.T) {
	gw, _, _ := newGatewayFixture(t)
	err := gw.Dispatch(SetDriverCmd{Device: "dev1", Driver: "nonexistent"})
	if err != ErrBadPayload {
		t.Errorf("got %v, want ErrBadPayload", err)
	}
}

func TestInboxCoalescesQueuedSwitchScene(t *testing.T) {
	ib := newInbox()
	s1 := &Scene{Name: "s1"}
	s2 := &Scene{Name: "s2"}
	ib.push(queuedCmd{kind: cmdKindSwitch, scene: s1}, 8)
	ib.push(queuedCmd{kind: cmdKindSwitch, scene: s2}, 8)
	if len(ib.queue) != 1 || ib.queue[0].scene.Name != "s2" {
		t.Errorf("expected the queued switch to be replaced by the newer one, got %+v", ib.queue)
	}
}

func TestInboxMergesQueuedUpdateState(t *testing.T) {
	ib := newInbox()
	ib.push(queuedCmd{kind: cmdKindUpdate, payload: map[string]any{"a": 1}}, 8)
	ib.push(queuedCmd{kind: cmdKindUpdate, payload: map[string]any{"b": 2}}, 8)
	if len(ib.queue) != 1 {
		t.Fatalf("expected update-state to merge onto one queue entry, got %d", len(ib.queue))
	}
	merged := ib.queue[0].payload
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("merged payload = %+v, want both keys present", merged)
	}
}
