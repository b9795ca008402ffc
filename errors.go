// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package ledmx

import "golang.org/x/xerrors"

// Command-validation errors (§7 kind 1). These never alter device state
// and are returned directly to the Gateway's caller.
var (
	ErrUnknownDevice = xerrors.New("ledmx: unknown device")
	ErrUnknownScene  = xerrors.New("ledmx: scene not registered")
	ErrBadPayload    = xerrors.New("ledmx: malformed payload")
)

// ErrDuplicateScene is returned by Registry.Register for a name already
// taken; registration is process-wide and fixed after startup (§4.2).
var ErrDuplicateScene = xerrors.New("ledmx: duplicate scene name")

// ErrInvalidScene is returned by Registry.Register when a scene is
// missing its name or render callable (§4.2).
var ErrInvalidScene = xerrors.New("ledmx: scene missing name or render")
