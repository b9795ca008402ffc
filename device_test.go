// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import (
	"testing"

	"github.com/galvanized/ledmx/transport"
)

func TestNewDeviceStartsWithZeroStats(t *testing.T) {
	mock := transport.NewMock(0)
	dev := NewDevice("dev1", 4, 4, mock)
	stats := dev.Stats()
	if stats.Pushes != 0 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Errorf("fresh device stats should all be zero, got %+v", stats)
	}
}

func TestFleetAddAndLookup(t *testing.T) {
	fleet := NewFleet()
	dev := NewDevice("dev1", 4, 4, transport.NewMock(0))
	fleet.Add(dev)

	got, ok := fleet.Device("dev1")
	if !ok || got != dev {
		t.Errorf("Device(dev1) = %v, %v", got, ok)
	}
	if _, ok := fleet.Device("missing"); ok {
		t.Error("Device(missing) should report not found")
	}
	hosts := fleet.Hosts()
	if len(hosts) != 1 || hosts[0] != "dev1" {
		t.Errorf("Hosts() = %v, want [dev1]", hosts)
	}
	fleet.Stop()
}

func TestFleetAddReplacesExistingDevice(t *testing.T) {
	fleet := NewFleet()
	fleet.Add(NewDevice("dev1", 4, 4, transport.NewMock(0)))
	replacement := NewDevice("dev1", 8, 8, transport.NewMock(0))
	fleet.Add(replacement)

	got, ok := fleet.Device("dev1")
	if !ok || got.Width != 8 {
		t.Errorf("expected replacement device with width 8, got %+v ok=%v", got, ok)
	}
	fleet.Stop()
}
