// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/galvanized/ledmx/canvas"
	"github.com/galvanized/ledmx/transport"
)

func newTestScheduler(width, height int, pushDelay time.Duration) (*Scheduler, *Device, *transport.Mock) {
	mock := transport.NewMock(pushDelay)
	dev := NewDevice("dev1", width, height, mock)
	cfg := newConfig(nil)
	dev.sched = newScheduler(dev, cfg)
	return dev.sched, dev, mock
}

// §8 scenario 1: adaptive loop throughput.
func TestScenarioAdaptiveLoopThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("2s real-time scenario; skipped under -short")
	}
	sched, dev, mock := newTestScheduler(8, 8, 50*time.Millisecond)
	defer sched.Stop()

	var n int32
	scene := &Scene{
		Name:      "adaptive",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			i := atomic.AddInt32(&n, 1)
			sc.Buffer.Set(int(i)%sc.Buffer.Width(), 0, canvas.Color{R: uint8(i), A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Delay: 0}, nil
		},
	}
	sched.SwitchScene(scene, nil)
	time.Sleep(2 * time.Second)

	count := mock.PushCount(dev.Host)
	if count < 30 || count > 45 {
		t.Errorf("push count over 2s = %d, want in [30,45]", count)
	}
	if sched.Status() != "running" {
		t.Errorf("scheduler status = %s, want running", sched.Status())
	}
}

// §8 scenario 2: fixed cadence self-correction.
func TestScenarioFixedCadenceSelfCorrection(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-second real-time scenario; skipped under -short")
	}
	sched, _, mock := newTestScheduler(4, 4, 50*time.Millisecond)
	defer sched.Stop()

	var mu sync.Mutex
	var starts []time.Time
	scene := &Scene{
		Name:      "fixed",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			mu.Lock()
			starts = append(starts, time.Now())
			n := len(starts)
			mu.Unlock()
			sc.Buffer.Set(0, 0, canvas.Color{R: uint8(n), A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Delay: 200 * time.Millisecond}, nil
		},
	}
	sched.SwitchScene(scene, nil)
	time.Sleep(4200 * time.Millisecond) // ~20 frames at 200ms

	mu.Lock()
	snapshot := append([]time.Time(nil), starts...)
	mu.Unlock()
	before := len(snapshot)
	if len(snapshot) < 20 {
		t.Fatalf("only %d frames captured, want at least 20", len(snapshot))
	}
	var total time.Duration
	for i := 1; i < 20; i++ {
		total += snapshot[i].Sub(snapshot[i-1])
	}
	mean := total / 19
	if mean < 190*time.Millisecond || mean > 210*time.Millisecond {
		t.Errorf("mean inter-start interval = %v, want ~200ms", mean)
	}

	mock.SetDelay(350 * time.Millisecond)
	time.Sleep(2 * time.Second)

	mu.Lock()
	snapshot = append([]time.Time(nil), starts...)
	mu.Unlock()
	n := len(snapshot)
	if n < before+2 {
		t.Fatalf("not enough frames after delay change: %d", n)
	}
	last := snapshot[n-1].Sub(snapshot[n-2])
	if last < 330*time.Millisecond || last > 400*time.Millisecond {
		t.Errorf("post-change interval = %v, want ~350ms with no idle gap", last)
	}
}

// §8 scenario 3: mid-frame switch.
func TestScenarioMidFrameSwitch(t *testing.T) {
	sched, _, _ := newTestScheduler(4, 4, 0)
	defer sched.Stop()

	var aPushes, bPushes int32
	sceneA := &Scene{
		Name:      "A",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			time.Sleep(300 * time.Millisecond)
			sc.Buffer.Set(0, 0, canvas.Color{R: 1, A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			atomic.AddInt32(&aPushes, 1)
			return RenderOutcome{Delay: 0}, nil
		},
	}
	sceneB := &Scene{
		Name:      "B",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			sc.Buffer.Set(1, 1, canvas.Color{R: 2, A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			atomic.AddInt32(&bPushes, 1)
			return RenderOutcome{Done: true}, nil
		},
	}

	sched.SwitchScene(sceneA, nil)
	time.Sleep(50 * time.Millisecond)
	sched.SwitchScene(sceneB, nil)
	time.Sleep(700 * time.Millisecond)

	if got := atomic.LoadInt32(&aPushes); got != 1 {
		t.Errorf("A pushes = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&bPushes); got != 1 {
		t.Errorf("B pushes = %d, want exactly 1", got)
	}
	if sched.Status() != "idle" {
		t.Errorf("status = %s, want idle", sched.Status())
	}

	time.Sleep(200 * time.Millisecond) // A's delay=0 must not have re-armed anything
	if got := atomic.LoadInt32(&aPushes); got != 1 {
		t.Errorf("A pushes after settling = %d, want still 1", got)
	}
}

// §8 scenario 4: completion terminates the loop.
func TestScenarioCompletionTerminatesLoop(t *testing.T) {
	sched, _, mock := newTestScheduler(2, 2, 0)
	defer sched.Stop()

	var renders int32
	scene := &Scene{
		Name: "once",
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			i := atomic.AddInt32(&renders, 1)
			sc.Buffer.Set(0, 0, canvas.Color{R: uint8(i), A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Done: true}, nil
		},
	}
	sched.SwitchScene(scene, nil)
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&renders); got != 1 {
		t.Fatalf("renders = %d, want 1", got)
	}

	sched.UpdateState(map[string]any{"x": 1})
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&renders); got != 1 {
		t.Errorf("UpdateState retriggered render: renders = %d, want still 1", got)
	}

	sched.SwitchScene(scene, nil)
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&renders); got != 2 {
		t.Errorf("re-SwitchScene did not retrigger: renders = %d, want 2", got)
	}
	if mock.PushCount("dev1") != 2 {
		t.Errorf("push count = %d, want 2", mock.PushCount("dev1"))
	}
}

// §8 scenario 5: diff elision.
func TestScenarioDiffElision(t *testing.T) {
	sched, dev, mock := newTestScheduler(4, 4, 0)
	defer sched.Stop()

	fill := canvas.Color{R: 5, G: 6, B: 7, A: 255}
	var diffs []int
	var mu sync.Mutex
	scene := &Scene{
		Name:      "steady",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			for y := 0; y < sc.Buffer.Height(); y++ {
				for x := 0; x < sc.Buffer.Width(); x++ {
					sc.Buffer.Set(x, y, fill)
				}
			}
			d, err := sc.Push(context.Background())
			if err != nil {
				return RenderOutcome{}, err
			}
			mu.Lock()
			diffs = append(diffs, d)
			mu.Unlock()
			return RenderOutcome{Delay: 1000 * time.Millisecond}, nil
		},
	}
	sched.SwitchScene(scene, nil)
	time.Sleep(1400 * time.Millisecond)

	mu.Lock()
	got := append([]int(nil), diffs...)
	mu.Unlock()
	if len(got) < 2 {
		t.Fatalf("only %d renders observed, want at least 2", len(got))
	}
	if got[0] != dev.Width*dev.Height {
		t.Errorf("first diff = %d, want %d (full frame)", got[0], dev.Width*dev.Height)
	}
	if got[1] != 0 {
		t.Errorf("second diff = %d, want 0", got[1])
	}
	if mock.PushCount(dev.Host) != 1 {
		t.Errorf("transport push count = %d, want 1 (second push skipped)", mock.PushCount(dev.Host))
	}
	if dev.Stats().Skipped != 1 {
		t.Errorf("skipped counter = %d, want 1", dev.Stats().Skipped)
	}
}

// §8 scenario 6: scene error isolation.
func TestScenarioSceneErrorIsolation(t *testing.T) {
	sched, dev, mock := newTestScheduler(2, 2, 0)
	defer sched.Stop()

	var n int32
	boom := canvas.Color{R: 9, A: 255}
	failing := &Scene{
		Name:      "boom",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			i := atomic.AddInt32(&n, 1)
			if i == 3 {
				return RenderOutcome{}, context.DeadlineExceeded
			}
			sc.Buffer.Set(int(i)%2, 0, boom) // a new pixel each render, so neither push is elided
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Delay: 10 * time.Millisecond}, nil
		},
	}
	sched.SwitchScene(failing, nil)
	time.Sleep(300 * time.Millisecond)

	if sched.Status() != "idle" {
		t.Errorf("status after error = %s, want idle", sched.Status())
	}
	if got := mock.PushCount(dev.Host); got != 2 {
		t.Errorf("push count after error = %d, want 2 (only the two successful renders)", got)
	}

	other := &Scene{
		Name: "safe",
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			sc.Buffer.Set(1, 1, canvas.Color{G: 9, A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Done: true}, nil
		},
	}
	sched.SwitchScene(other, nil)
	time.Sleep(100 * time.Millisecond)
	if got := mock.PushCount(dev.Host); got != 3 {
		t.Errorf("switch after error failed: push count = %d, want 3", got)
	}
}

// §8: cleanup(S1) happens-before init(S2) for any two SwitchScene
// commands on the same device.
func TestScenarioCleanupRunsBeforeNextInit(t *testing.T) {
	sched, dev, mock := newTestScheduler(2, 2, 0)
	defer sched.Stop()

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	first := &Scene{
		Name:      "first",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			record("first:render")
			sc.Buffer.Set(0, 0, canvas.Color{R: 1, A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Delay: 10 * time.Millisecond}, nil
		},
		Cleanup: func(_ context.Context, _ *Context) error {
			time.Sleep(30 * time.Millisecond) // widen the window a race would need to land in
			record("first:cleanup")
			return nil
		},
	}
	second := &Scene{
		Name: "second",
		Init: func(_ context.Context, _ *Context) error {
			record("second:init")
			return nil
		},
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			sc.Buffer.Set(0, 0, canvas.Color{R: 2, A: 255})
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Done: true}, nil
		},
	}

	sched.SwitchScene(first, nil)
	time.Sleep(50 * time.Millisecond) // let it start looping
	sched.SwitchScene(second, nil)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	got := append([]string(nil), events...)
	mu.Unlock()

	cleanups := 0
	for _, e := range got {
		if e == "first:cleanup" {
			cleanups++
		}
	}
	if cleanups != 1 {
		t.Fatalf("first:cleanup ran %d times, want exactly 1: %v", cleanups, got)
	}

	cleanupIdx, initIdx := -1, -1
	for i, e := range got {
		switch e {
		case "first:cleanup":
			cleanupIdx = i
		case "second:init":
			if initIdx == -1 {
				initIdx = i
			}
		}
	}
	if cleanupIdx == -1 || initIdx == -1 || cleanupIdx > initIdx {
		t.Fatalf("expected first:cleanup before second:init, got %v", got)
	}
	if mock.PushCount(dev.Host) != 2 {
		t.Errorf("push count = %d, want 2 (one from each scene)", mock.PushCount(dev.Host))
	}
}

// §4.5: SetDriver quiesces before swapping, so a render already in
// flight under the old scene still pushes to the old transport; the
// swap only takes effect once the scene is torn down and restarted.
func TestSetDriverQuiescesBeforeSwap(t *testing.T) {
	oldMock := transport.NewMock(0)
	dev := NewDevice("dev1", 2, 2, oldMock)
	cfg := newConfig(nil)
	dev.sched = newScheduler(dev, cfg)
	sched := dev.sched
	defer sched.Stop()

	release := make(chan struct{})
	var enterOnce sync.Once
	entered := make(chan struct{})
	var renders int32
	scene := &Scene{
		Name:      "slow",
		WantsLoop: true,
		Render: func(_ context.Context, sc *Context) (RenderOutcome, error) {
			enterOnce.Do(func() { close(entered) })
			<-release
			i := atomic.AddInt32(&renders, 1)
			sc.Buffer.Set(0, 0, canvas.Color{R: uint8(i), A: 255}) // differs per render, so no push is elided
			if _, err := sc.Push(context.Background()); err != nil {
				return RenderOutcome{}, err
			}
			return RenderOutcome{Done: true}, nil
		},
	}
	sched.SwitchScene(scene, nil)
	<-entered // the first render is now in flight, blocked on release

	newMock := transport.NewMock(0)
	sched.SetDriver(newMock)
	time.Sleep(50 * time.Millisecond)
	if oldMock.PushCount("dev1") != 0 || newMock.PushCount("dev1") != 0 {
		t.Fatalf("SetDriver must not apply or push anything before the in-flight render finishes")
	}

	close(release) // let the in-flight render (and its restart) proceed
	time.Sleep(200 * time.Millisecond)

	if oldMock.PushCount("dev1") != 1 {
		t.Errorf("old transport push count = %d, want 1 (the render that was already in flight)", oldMock.PushCount("dev1"))
	}
	if newMock.PushCount("dev1") != 1 {
		t.Errorf("new transport push count = %d, want 1 (the restart after quiescing)", newMock.PushCount("dev1"))
	}
	if sched.Status() != "idle" {
		t.Errorf("status = %s, want idle after the quiesced scene's restart completed", sched.Status())
	}
}
