// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/galvanized/ledmx/transport"
)

// Design note: concurrency based on "share memory by communicating",
// the same note the teacher's vu.go opens with. A Scheduler is one
// goroutine (run) that owns all of a device's scheduling state; every
// other goroutine — an in-flight init, render, or cleanup call — talks
// to it only by posting a message on cmds, mirroring the teacher's
// machine/reqs split between the device-facing and application-facing
// loops.

// status is the scheduler's C4 state machine position (§4.3).
type status int

const (
	statusIdle status = iota
	statusStarting
	statusRunning
	statusStopping
)

func (s status) String() string {
	switch s {
	case statusIdle:
		return "idle"
	case statusStarting:
		return "starting"
	case statusRunning:
		return "running"
	case statusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// schedulerMsg is the union of everything the run loop reacts to,
// exactly like the teacher's `type msg interface{}` in vu.go.
type schedulerMsg interface{}

type msgSwitchScene struct {
	scene   *Scene
	payload map[string]any
}

type msgUpdateState struct {
	payload map[string]any
}

type msgSetDriver struct {
	xport transport.Transport
}

type msgInitDone struct {
	generation uint64
	err        error
}

type msgRenderDone struct {
	generation uint64
	outcome    RenderOutcome
	err        error
	startedAt  time.Time
}

type msgCleanupDone struct {
	generation uint64
}

type msgTick struct {
	generation uint64
}

type msgStatusQuery struct {
	reply chan status
}

// pendingTarget is the scene a Scheduler will start once the current
// one has finished tearing down; while status is stopping, a new
// SwitchScene overwrites this rather than queuing (§4.3: "only the
// most recent SwitchScene's target is kept"). driver, when set, is a
// transport swap requested mid-teardown (§4.5): it is applied to the
// device only once the teardown this pendingTarget belongs to actually
// completes, never immediately.
type pendingTarget struct {
	scene   *Scene
	payload map[string]any
	driver  transport.Transport
}

// Scheduler is the per-device state machine (C4). Exactly one runs per
// Device, for the Device's entire lifetime.
type Scheduler struct {
	device *Device
	cfg    *Config

	cmds chan schedulerMsg
	done chan struct{}
	wg   sync.WaitGroup

	// The following fields are touched only on the run() goroutine.
	status        status
	generation    uint64
	current       *Scene
	payload       map[string]any
	needsCleanup  bool
	pendingSwitch *pendingTarget
	timer         *time.Timer

	warnedNegativeDelay map[string]bool

	stateMu sync.Mutex
	state   map[string]any
}

// newScheduler builds and starts a Scheduler for dev.
func newScheduler(dev *Device, cfg *Config) *Scheduler {
	s := &Scheduler{
		device:              dev,
		cfg:                 cfg,
		cmds:                make(chan schedulerMsg, 4),
		done:                make(chan struct{}),
		warnedNegativeDelay: map[string]bool{},
		state:               map[string]any{},
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// SwitchScene requests scene become the active scene, per §4.3's state
// machine. It returns immediately; activation is asynchronous.
func (s *Scheduler) SwitchScene(scene *Scene, payload map[string]any) {
	s.post(msgSwitchScene{scene: scene, payload: payload})
}

// UpdateState replaces the active scene's payload without restarting
// it. A no-op if no scene is currently active.
func (s *Scheduler) UpdateState(payload map[string]any) {
	s.post(msgUpdateState{payload: payload})
}

// SetDriver swaps the device's transport, quiescing the scheduler
// first and restarting the current scene afterward (§4.5).
func (s *Scheduler) SetDriver(xport transport.Transport) {
	s.post(msgSetDriver{xport: xport})
}

// Status reports the scheduler's current state-machine position, for
// diagnostics and health reporting (idle, starting, running, stopping).
func (s *Scheduler) Status() string {
	reply := make(chan status, 1)
	s.post(msgStatusQuery{reply: reply})
	select {
	case st := <-reply:
		return st.String()
	case <-s.done:
		return statusIdle.String()
	}
}

// Stop halts the scheduler goroutine. Any in-flight render or cleanup
// is allowed to finish posting its completion message, which is then
// discarded.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *Scheduler) post(m schedulerMsg) {
	select {
	case s.cmds <- m:
	case <-s.done:
	}
}

// run is the single goroutine that owns every piece of this device's
// scheduling state. It never blocks on a scene call directly — each
// scene call runs in its own short-lived goroutine that reports back
// over cmds.
func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.cancelTimer()
			return
		case m := <-s.cmds:
			switch msg := m.(type) {
			case msgSwitchScene:
				s.handleSwitch(msg)
			case msgUpdateState:
				s.handleUpdateState(msg)
			case msgSetDriver:
				s.handleSetDriver(msg)
			case msgInitDone:
				s.handleInitDone(msg)
			case msgRenderDone:
				s.handleRenderDone(msg)
			case msgCleanupDone:
				s.handleCleanupDone(msg)
			case msgTick:
				s.handleTick(msg)
			case msgStatusQuery:
				msg.reply <- s.status
			}
		}
	}
}

func (s *Scheduler) handleSwitch(m msgSwitchScene) {
	switch s.status {
	case statusIdle:
		if s.needsCleanup {
			s.status = statusStopping
			s.pendingSwitch = &pendingTarget{scene: m.scene, payload: m.payload}
			s.spawnCleanup(s.generation, s.current)
			return
		}
		s.beginStarting(m.scene, m.payload)
	case statusStarting, statusRunning:
		betweenTicks := s.status == statusRunning && s.timer != nil
		s.cancelTimer()
		s.status = statusStopping
		s.pendingSwitch = &pendingTarget{scene: m.scene, payload: m.payload, driver: s.pendingDriver()}
		// The in-flight init or render is left to run to completion;
		// its Done message drives the teardown onward. Between ticks
		// nothing is in flight, so cleanup starts right away.
		if betweenTicks {
			s.spawnCleanup(s.generation, s.current)
		}
	case statusStopping:
		// Coalesce: only the most recent target survives, but a driver
		// swap already staged for this teardown must not be lost.
		s.pendingSwitch = &pendingTarget{scene: m.scene, payload: m.payload, driver: s.pendingDriver()}
	}
}

// pendingDriver returns the transport swap already staged for the
// in-flight teardown, if any, so a coalescing SwitchScene never drops
// it.
func (s *Scheduler) pendingDriver() transport.Transport {
	if s.pendingSwitch != nil {
		return s.pendingSwitch.driver
	}
	return nil
}

func (s *Scheduler) handleUpdateState(m msgUpdateState) {
	if s.status == statusIdle {
		return // no scene active: no-op, not an error (§4.5)
	}
	s.payload = m.payload
}

// handleSetDriver implements §4.5's "quiesce the scheduler first" rule:
// the transport swap is never applied while a render could still be in
// flight under the outgoing scene. When idle, nothing is in flight, so
// the swap lands immediately. Otherwise it is stashed on the
// pendingTarget and applied in handleCleanupDone, right before the
// scene (or its restart) begins again — never by handleSetDriver
// itself.
func (s *Scheduler) handleSetDriver(m msgSetDriver) {
	switch s.status {
	case statusIdle:
		s.device.setTransport(m.xport)
	case statusRunning, statusStarting:
		betweenTicks := s.status == statusRunning && s.timer != nil
		s.cancelTimer()
		s.status = statusStopping
		s.pendingSwitch = &pendingTarget{scene: s.current, payload: s.payload, driver: m.xport}
		if betweenTicks {
			s.spawnCleanup(s.generation, s.current)
		}
	case statusStopping:
		if s.pendingSwitch == nil {
			s.pendingSwitch = &pendingTarget{scene: s.current, payload: s.payload, driver: m.xport}
		} else {
			s.pendingSwitch.driver = m.xport
		}
	}
}

func (s *Scheduler) handleInitDone(m msgInitDone) {
	if m.generation != s.generation {
		return
	}
	if s.status == statusStopping {
		// A switch arrived while init was still in flight; the scene
		// never rendered, but it must still be cleaned up exactly once.
		s.spawnCleanup(m.generation, s.current)
		return
	}
	if m.err != nil {
		s.cfg.Log.Error().Err(m.err).Str("device", s.device.Host).Str("scene", s.current.Name).
			Uint64("generation", m.generation).Msg("scene init failed")
		s.current = nil
		s.needsCleanup = false
		s.status = statusIdle
		return
	}
	s.beginRender(m.generation, false)
}

func (s *Scheduler) handleRenderDone(m msgRenderDone) {
	if m.generation != s.generation {
		return // stale result from an outgoing scene; discarded per §4.3
	}
	if s.status == statusStopping {
		s.spawnCleanup(m.generation, s.current)
		return
	}
	if m.err != nil {
		s.cfg.Log.Error().Err(m.err).Str("device", s.device.Host).Str("scene", s.current.Name).
			Uint64("generation", m.generation).Msg("scene render failed")
		s.status = statusIdle
		return
	}
	if !s.current.WantsLoop || m.outcome.Done {
		s.status = statusIdle
		return
	}
	delay := m.outcome.Delay
	if delay < 0 && !s.warnedNegativeDelay[s.current.Name] {
		s.warnedNegativeDelay[s.current.Name] = true
		s.cfg.Log.Warn().Str("device", s.device.Host).Str("scene", s.current.Name).
			Msg("scene returned a negative delay; clamping to zero")
	}
	delay = clampNonNegative(delay)
	s.status = statusRunning
	s.scheduleNext(m.generation, delay, m.startedAt)
}

func (s *Scheduler) handleCleanupDone(m msgCleanupDone) {
	if s.current != nil {
		s.stateMu.Lock()
		delete(s.state, s.current.Name)
		s.stateMu.Unlock()
	}
	s.current = nil
	s.needsCleanup = false
	if s.pendingSwitch != nil {
		next := s.pendingSwitch
		s.pendingSwitch = nil
		if next.driver != nil {
			s.device.setTransport(next.driver)
		}
		s.beginStarting(next.scene, next.payload)
		return
	}
	s.status = statusIdle
}

func (s *Scheduler) handleTick(m msgTick) {
	if m.generation != s.generation || s.status != statusRunning {
		return
	}
	s.timer = nil // the tick has fired; a render is now in flight
	s.beginRender(m.generation, true)
}

func (s *Scheduler) beginStarting(scene *Scene, payload map[string]any) {
	s.generation++
	s.current = scene
	s.payload = payload
	s.needsCleanup = true
	s.status = statusStarting
	s.spawnInit(s.generation, scene, payload)
}

func (s *Scheduler) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) scheduleNext(gen uint64, delay time.Duration, startedAt time.Time) {
	if delay <= 0 {
		s.timer = time.AfterFunc(0, func() { s.post(msgTick{generation: gen}) })
		return
	}
	remaining := remainingDelay(delay, startedAt, time.Now())
	s.timer = time.AfterFunc(remaining, func() { s.post(msgTick{generation: gen}) })
}

func (s *Scheduler) env() Env {
	return Env{Host: s.device.Host, Width: s.device.Width, Height: s.device.Height}
}

func (s *Scheduler) spawnInit(gen uint64, scene *Scene, payload map[string]any) {
	go func() {
		var err error
		if scene.Init != nil {
			sctx := &Context{Payload: payload, Env: s.env(), Buffer: s.device.buffer, sched: s, sceneName: scene.Name, generation: gen}
			err = scene.Init(context.Background(), sctx)
		}
		s.post(msgInitDone{generation: gen, err: err})
	}()
}

func (s *Scheduler) spawnRender(gen uint64, scene *Scene, payload map[string]any, loopDriven bool) {
	go func() {
		ctx := context.Background()
		if s.cfg.RenderCeiling > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderCeiling)
			defer cancel()
		}
		sctx := &Context{Payload: payload, LoopDriven: loopDriven, Env: s.env(), Buffer: s.device.buffer, sched: s, sceneName: scene.Name, generation: gen}
		start := time.Now()
		outcome, err := scene.Render(ctx, sctx)
		s.post(msgRenderDone{generation: gen, outcome: outcome, err: err, startedAt: start})
	}()
}

func (s *Scheduler) beginRender(gen uint64, loopDriven bool) {
	s.spawnRender(gen, s.current, s.payload, loopDriven)
}

func (s *Scheduler) spawnCleanup(gen uint64, scene *Scene) {
	go func() {
		if scene != nil && scene.Cleanup != nil {
			sctx := &Context{Env: s.env(), Buffer: s.device.buffer, sched: s, sceneName: scene.Name, generation: gen}
			if err := scene.Cleanup(context.Background(), sctx); err != nil {
				s.cfg.Log.Error().Err(err).Str("device", s.device.Host).Str("scene", scene.Name).
					Msg("scene cleanup failed")
			}
		}
		s.post(msgCleanupDone{generation: gen})
	}()
}

func (s *Scheduler) getState(sceneName string) any {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state[sceneName]
}

func (s *Scheduler) setState(sceneName string, v any) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state[sceneName] = v
}

// push implements the Frame Pipeline (C5, §4.4) on behalf of a
// Context.Push call. It runs on the render goroutine, never on run(),
// since the device buffer is only ever touched by the one goroutine
// currently rendering.
func (s *Scheduler) push(ctx context.Context, sceneName string, generation uint64) (int, error) {
	snapshot := s.device.buffer.Clone()
	diff := snapshot.Diff(s.device.lastPushed)
	if diff == 0 {
		atomic.AddUint64(&s.device.skipped, 1)
		s.cfg.Publisher.Publish(MetricsEvent{
			DeviceHost:     s.device.Host,
			SceneName:      sceneName,
			DiffPixelCount: 0,
			GenerationNum:  generation,
			Timestamp:      time.Now(),
		})
		return 0, nil
	}

	xport := s.device.Transport()
	dur, err := xport.Push(ctx, s.device.Host, transport.Frame{
		Width:  s.device.Width,
		Height: s.device.Height,
		RGB:    snapshot.RGBBytes(),
	})
	if err != nil {
		atomic.AddUint64(&s.device.errors, 1)
		return diff, err
	}

	atomic.AddUint64(&s.device.pushes, 1)
	atomic.StoreInt64(&s.device.lastPushMs, dur.Milliseconds())
	s.device.lastPushed.CopyFrom(snapshot)
	s.cfg.Publisher.Publish(MetricsEvent{
		DeviceHost:     s.device.Host,
		SceneName:      sceneName,
		PushDurationMs: dur.Milliseconds(),
		DiffPixelCount: diff,
		GenerationNum:  generation,
		Timestamp:      time.Now(),
	})
	return diff, nil
}
