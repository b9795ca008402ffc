// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build !linux

package transport

import (
	"net"
	"net/http"
	"time"
)

// newTunedClient on non-Linux platforms skips the raw-socket tuning
// golang.org/x/sys/unix provides and falls back to a plain dialer,
// mirroring the teacher's os_darwin.go/os_windows.go split where
// platform-specific device access degrades to a portable default.
func newTunedClient() *http.Client {
	return newClientWithDialer(&net.Dialer{Timeout: 5 * time.Second})
}
