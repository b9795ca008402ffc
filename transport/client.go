// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package transport

import (
	"net"
	"net/http"
	"time"
)

// newClientWithDialer builds an *http.Client that uses dialer for all
// connections, shared by the per-OS newTunedClient implementations.
func newClientWithDialer(dialer *net.Dialer) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: 5 * time.Second,
		},
	}
}
