// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/xerrors"
)

// envelope mirrors the device's documented HTTP POST wire format (§6):
// one packet per picture by default (or one per chunk with
// WithPacketSize), base64-encoded pixel data.
type envelope struct {
	Command   string `json:"command-name"`
	PicNum    int    `json:"pic-num"`
	PicWidth  int    `json:"pic-width"`
	PicOffset int    `json:"pic-offset"`
	PicID     uint32 `json:"pic-id"`
	PicData   string `json:"pic-data"`
}

// Real pushes frames to a physical device over HTTP. One Real is expected
// per device: the pic-id counter it owns must persist for the process
// lifetime and increment once per push, never reset or shared across
// devices.
//
// The default packet size sends the whole frame as pic-num=1 (matching
// the documented envelope for the baseline 64x64 frame). Splitting a
// frame across multiple packets for larger panels is left to
// WithPacketSize — the vendor's actual chunking boundaries are an open
// question the spec explicitly declines to guess at (§9), so the knob
// exists but is not exercised by the default path.
type Real struct {
	host        string
	client      *http.Client
	packetBytes int
	commandName string
	pushTimeout time.Duration
	picID       uint32
}

// RealOption configures a Real transport.
type RealOption func(*Real)

// WithHTTPClient overrides the default client, which is the
// socket-tuned one from newTunedClient (useful for a client with custom
// TLS settings, or a test server's client).
func WithHTTPClient(c *http.Client) RealOption {
	return func(r *Real) { r.client = c }
}

// WithPacketSize caps how many RGB bytes are sent per HTTP POST; frames
// larger than this are split into multiple pic-num/pic-offset packets.
// Zero (the default) sends the whole frame in one packet.
func WithPacketSize(n int) RealOption {
	return func(r *Real) { r.packetBytes = n }
}

// WithPushTimeout bounds how long a single push may take before it is
// counted as a transport error, per §5's recommendation of a bounded
// timeout measured in seconds.
func WithPushTimeout(d time.Duration) RealOption {
	return func(r *Real) { r.pushTimeout = d }
}

// NewReal builds a transport that POSTs frames to the device at host.
func NewReal(host string, opts ...RealOption) *Real {
	r := &Real{
		host:        host,
		client:      newTunedClient(),
		commandName: "draw",
		pushTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Push implements Transport.
func (r *Real) Push(ctx context.Context, deviceID string, frame Frame) (time.Duration, error) {
	want := frame.Width * frame.Height * 3
	if len(frame.RGB) != want {
		return 0, xerrors.Errorf("transport: frame for %s has %d bytes, want %d", deviceID, len(frame.RGB), want)
	}

	ctx, cancel := context.WithTimeout(ctx, r.pushTimeout)
	defer cancel()

	packets := r.chunk(frame.RGB)
	picID := atomic.AddUint32(&r.picID, 1)
	start := time.Now()
	for _, pk := range packets {
		env := envelope{
			Command:   r.commandName,
			PicNum:    len(packets),
			PicWidth:  frame.Width,
			PicOffset: pk.offset,
			PicID:     picID,
			PicData:   base64.StdEncoding.EncodeToString(pk.data),
		}
		if err := r.post(ctx, env); err != nil {
			return time.Since(start), xerrors.Errorf("transport: push to %s: %w", deviceID, err)
		}
	}
	return time.Since(start), nil
}

type packet struct {
	offset int
	data   []byte
}

func (r *Real) chunk(rgb []byte) []packet {
	size := r.packetBytes
	if size <= 0 || size >= len(rgb) {
		return []packet{{offset: 0, data: rgb}}
	}
	var packets []packet
	for off := 0; off < len(rgb); off += size {
		end := off + size
		if end > len(rgb) {
			end = len(rgb)
		}
		packets = append(packets, packet{offset: off, data: rgb[off:end]})
	}
	return packets
}

func (r *Real) post(ctx context.Context, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return xerrors.Errorf("encode envelope: %w", err)
	}
	url := fmt.Sprintf("http://%s/api/picture", r.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return xerrors.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.Errorf("device returned status %d", resp.StatusCode)
	}
	return nil
}
