// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"sync"

	"github.com/galvanized/ledmx/transport"
)

// Command is the tagged union the Gateway accepts (§3, §6).
type Command interface{ isCommand() }

// SwitchSceneCmd requests device begin running scene, per payload.
type SwitchSceneCmd struct {
	Device    string
	SceneName string
	Payload   map[string]any
}

// UpdateStateCmd replaces the active scene's payload on device.
type UpdateStateCmd struct {
	Device  string
	Payload map[string]any
}

// SetDriverCmd switches device's transport between "real" and "mock".
type SetDriverCmd struct {
	Device string
	Driver string
}

// ResetCmd is equivalent to SwitchScene to the built-in empty scene.
type ResetCmd struct {
	Device string
}

func (SwitchSceneCmd) isCommand() {}
func (UpdateStateCmd) isCommand() {}
func (SetDriverCmd) isCommand()   {}
func (ResetCmd) isCommand()       {}

// DriverFactory builds the transport.Transport for a named driver kind
// ("real" or "mock") targeting a specific device host.
type DriverFactory func(host string) transport.Transport

type cmdKind int

const (
	cmdKindSwitch cmdKind = iota
	cmdKindUpdate
	cmdKindDriver
)

type queuedCmd struct {
	kind    cmdKind
	scene   *Scene
	payload map[string]any
	driver  transport.Transport
}

// inbox is a per-device bounded command queue with backpressure (§5):
// a queued SwitchScene is replaced (not stacked) by a newer one before
// it is drained, and a queued UpdateState's payload is merged onto by
// a newer UpdateState rather than queuing a second entry.
type inbox struct {
	mu    sync.Mutex
	queue []queuedCmd
	wake  chan struct{}
}

func newInbox() *inbox {
	return &inbox{wake: make(chan struct{}, 1)}
}

func (ib *inbox) push(cmd queuedCmd, capacity int) {
	ib.mu.Lock()
	n := len(ib.queue)
	switch {
	case cmd.kind == cmdKindSwitch && n > 0 && ib.queue[n-1].kind == cmdKindSwitch:
		ib.queue[n-1] = cmd
	case cmd.kind == cmdKindUpdate && n > 0 && ib.queue[n-1].kind == cmdKindUpdate:
		merged := make(map[string]any, len(ib.queue[n-1].payload)+len(cmd.payload))
		for k, v := range ib.queue[n-1].payload {
			merged[k] = v
		}
		for k, v := range cmd.payload {
			merged[k] = v
		}
		ib.queue[n-1].payload = merged
	default:
		ib.queue = append(ib.queue, cmd)
	}
	if capacity > 0 && len(ib.queue) > capacity {
		// Oldest entries that survived coalescing are dropped first,
		// per §5's "oldest SwitchScene may be dropped" allowance.
		ib.queue = ib.queue[len(ib.queue)-capacity:]
	}
	ib.mu.Unlock()

	select {
	case ib.wake <- struct{}{}:
	default:
	}
}

func (ib *inbox) pop() (queuedCmd, bool) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if len(ib.queue) == 0 {
		return queuedCmd{}, false
	}
	cmd := ib.queue[0]
	ib.queue = ib.queue[1:]
	return cmd, true
}

// Gateway is the Command Gateway (C6): it validates commands against
// the Fleet and Registry, then dispatches them to the right device's
// Scheduler with per-device FIFO ordering (§4.5, §5).
type Gateway struct {
	fleet    *Fleet
	registry *Registry
	cfg      *Config
	drivers  map[string]DriverFactory

	emptyScene *Scene

	mu      sync.Mutex
	inboxes map[string]*inbox
}

// NewGateway builds a Gateway over fleet/registry. emptyScene is the
// built-in scene Reset switches to; drivers maps "real"/"mock" driver
// names to factories used by SetDriverCmd.
func NewGateway(fleet *Fleet, registry *Registry, cfg *Config, emptyScene *Scene, drivers map[string]DriverFactory) *Gateway {
	return &Gateway{
		fleet:      fleet,
		registry:   registry,
		cfg:        cfg,
		drivers:    drivers,
		emptyScene: emptyScene,
		inboxes:    map[string]*inbox{},
	}
}

// Dispatch validates cmd and, if valid, enqueues it for asynchronous
// processing on its target device. Validation errors (§7 kind 1) are
// returned to the caller and never reach the device.
func (g *Gateway) Dispatch(cmd Command) error {
	switch c := cmd.(type) {
	case SwitchSceneCmd:
		dev, scene, err := g.validateSwitch(c.Device, c.SceneName)
		if err != nil {
			return err
		}
		g.enqueue(dev.Host, queuedCmd{kind: cmdKindSwitch, scene: scene, payload: c.Payload})
		return nil

	case UpdateStateCmd:
		dev, ok := g.fleet.Device(c.Device)
		if !ok {
			return ErrUnknownDevice
		}
		g.enqueue(dev.Host, queuedCmd{kind: cmdKindUpdate, payload: c.Payload})
		return nil

	case SetDriverCmd:
		dev, ok := g.fleet.Device(c.Device)
		if !ok {
			return ErrUnknownDevice
		}
		factory, ok := g.drivers[c.Driver]
		if !ok {
			return ErrBadPayload
		}
		g.enqueue(dev.Host, queuedCmd{kind: cmdKindDriver, driver: factory(dev.Host)})
		return nil

	case ResetCmd:
		dev, ok := g.fleet.Device(c.Device)
		if !ok {
			return ErrUnknownDevice
		}
		g.enqueue(dev.Host, queuedCmd{kind: cmdKindSwitch, scene: g.emptyScene, payload: nil})
		return nil
	}
	return ErrBadPayload
}

func (g *Gateway) validateSwitch(host, sceneName string) (*Device, *Scene, error) {
	dev, ok := g.fleet.Device(host)
	if !ok {
		return nil, nil, ErrUnknownDevice
	}
	scene, ok := g.registry.Lookup(sceneName)
	if !ok {
		return nil, nil, ErrUnknownScene
	}
	if scene.DeviceType != "" && dev.DeviceType != "" && scene.DeviceType != dev.DeviceType {
		return nil, nil, ErrBadPayload
	}
	return dev, scene, nil
}

func (g *Gateway) enqueue(host string, cmd queuedCmd) {
	g.mu.Lock()
	ib, ok := g.inboxes[host]
	if !ok {
		ib = newInbox()
		g.inboxes[host] = ib
		go g.runInbox(host, ib)
	}
	g.mu.Unlock()
	ib.push(cmd, g.cfg.InboxCapacity)
}

func (g *Gateway) runInbox(host string, ib *inbox) {
	for range ib.wake {
		for {
			cmd, ok := ib.pop()
			if !ok {
				break
			}
			g.apply(host, cmd)
		}
	}
}

func (g *Gateway) apply(host string, cmd queuedCmd) {
	dev, ok := g.fleet.Device(host)
	if !ok {
		return // device was removed from the fleet after enqueue
	}
	switch cmd.kind {
	case cmdKindSwitch:
		dev.sched.SwitchScene(cmd.scene, cmd.payload)
	case cmdKindUpdate:
		dev.sched.UpdateState(cmd.payload)
	case cmdKindDriver:
		dev.sched.SetDriver(cmd.driver)
	}
}
