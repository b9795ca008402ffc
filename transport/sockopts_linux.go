// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package transport

import (
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// newTunedClient builds an *http.Client whose dialer disables Nagle's
// algorithm and sets a send timeout on the raw socket, the same way the
// teacher drops to golang.org/x/sys for platform-level control it can't
// get from the stdlib alone (see internal/render/vk/sys_unix.go,
// internal/audio/al/al.go). Frame pushes are small and latency-sensitive,
// so batching them behind Nagle only adds delay.
func newTunedClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 5 * time.Second,
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
				if sockErr != nil {
					return
				}
				sockErr = unix.SetsockoptTimeval(int(fd), unix.SOL_SOCKET, unix.SO_SNDTIMEO, &unix.Timeval{Sec: 5})
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return newClientWithDialer(dialer)
}
