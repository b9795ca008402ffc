// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"sync"
	"sync/atomic"

	"github.com/galvanized/ledmx/canvas"
	"github.com/galvanized/ledmx/transport"
)

// Device identifies one physical (or mocked) panel by a stable host
// string and owns its geometry, framebuffer, and push metrics (§3). A
// Device is created once at startup from configuration and lives for
// the process lifetime; its Scheduler is the only thing that mutates
// its buffer.
type Device struct {
	Host       string
	Width      int
	Height     int
	DeviceType string

	buffer     *canvas.Buffer // live framebuffer, mutated only inside render
	lastPushed *canvas.Buffer // last-pushed snapshot, same shape always

	pushes     uint64 // total successful pushes
	skipped    uint64 // pushes elided because diff was zero
	errors     uint64 // transport failures
	lastPushMs int64  // last observed push duration, milliseconds

	mu        sync.Mutex
	transport transport.Transport

	sched *Scheduler
}

// NewDevice allocates a Device with a transparent-black framebuffer of
// the given geometry, pushing through xport.
func NewDevice(host string, width, height int, xport transport.Transport) *Device {
	return &Device{
		Host:       host,
		Width:      width,
		Height:     height,
		buffer:     canvas.NewBuffer(width, height),
		lastPushed: canvas.NewBuffer(width, height),
		transport:  xport,
	}
}

// Transport returns the device's current transport.
func (d *Device) Transport() transport.Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transport
}

// setTransport swaps the backing transport. Callers (the Gateway, via
// SetDriver) must quiesce the scheduler first; this method itself does
// not coordinate with any in-flight render.
func (d *Device) setTransport(t transport.Transport) {
	d.mu.Lock()
	d.transport = t
	d.mu.Unlock()
}

// Stats is a snapshot of a Device's push metrics (§3: "push metrics
// counter is monotonic").
type Stats struct {
	Pushes        uint64
	Skipped       uint64
	Errors        uint64
	LastPushMs    int64
}

// Stats returns the device's current push metrics.
func (d *Device) Stats() Stats {
	return Stats{
		Pushes:     atomic.LoadUint64(&d.pushes),
		Skipped:    atomic.LoadUint64(&d.skipped),
		Errors:     atomic.LoadUint64(&d.errors),
		LastPushMs: atomic.LoadInt64(&d.lastPushMs),
	}
}

// Fleet is the concurrency-safe device registry (§9 supplemented
// feature), modeled on the teacher's assets.depot cache: a mutex-guarded
// map, here keyed by device host instead of asset name. Lookups never
// create a device; devices enter only through Add.
type Fleet struct {
	cfg *Config

	mu      sync.RWMutex
	devices map[string]*Device
}

// NewFleet builds an empty Fleet configured by attrs. Scene lookup
// happens at the Gateway, which always resolves a *Scene before handing
// it to a device's Scheduler — a Fleet never needs a Registry itself.
func NewFleet(attrs ...Attr) *Fleet {
	return &Fleet{
		cfg:     newConfig(attrs),
		devices: map[string]*Device{},
	}
}

// Add registers dev with the fleet and starts its scheduler. Adding a
// device with a host already present replaces it, stopping the
// previous scheduler first.
func (f *Fleet) Add(dev *Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, exists := f.devices[dev.Host]; exists {
		old.sched.Stop()
	}
	dev.sched = newScheduler(dev, f.cfg)
	f.devices[dev.Host] = dev
}

// Config returns the Config the Fleet was built with, for constructing
// a Gateway over the same fleet with consistent settings.
func (f *Fleet) Config() *Config {
	return f.cfg
}

// Device looks up a device by host.
func (f *Fleet) Device(host string) (*Device, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.devices[host]
	return d, ok
}

// Hosts returns every registered device host, in no particular order.
func (f *Fleet) Hosts() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	hosts := make([]string, 0, len(f.devices))
	for h := range f.devices {
		hosts = append(hosts, h)
	}
	return hosts
}

// Stop shuts down every device's scheduler. Intended for process
// shutdown; individual devices are never removed mid-process by the
// core (that would be an external-collaborator concern).
func (f *Fleet) Stop() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, d := range f.devices {
		d.sched.Stop()
	}
}
