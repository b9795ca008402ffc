// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package assets resolves scene-referenced media (PNG, GIF) against a
// read-only directory on disk. It follows the directory-convention idiom
// from the teacher's load package: a file extension maps to a
// subdirectory unless the caller overrides the mapping.
package assets

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// Locator finds scene asset files rooted under a single read-only media
// directory. The zero value is not usable; create one with NewLocator.
type Locator interface {
	// Dir maps a file extension (without the dot, any case) to a
	// subdirectory of the media root.
	Dir(ext, subdir string) Locator

	// Open resolves name against the media root (applying any directory
	// convention for its extension) and opens it for reading. The
	// caller must close the returned file.
	Open(name string) (io.ReadCloser, error)

	// Root returns the configured media directory.
	Root() string
}

type locator struct {
	root string
	dirs map[string]string
}

// NewLocator returns a Locator rooted at root. PNG and GIF default to an
// "images" subdirectory; callers may override with Dir.
func NewLocator(root string) Locator {
	return &locator{
		root: root,
		dirs: map[string]string{
			"PNG": "images",
			"GIF": "images",
		},
	}
}

func (l *locator) Dir(ext, subdir string) Locator {
	l.dirs[strings.ToUpper(ext)] = subdir
	return l
}

func (l *locator) Root() string { return l.root }

func (l *locator) Open(name string) (io.ReadCloser, error) {
	prefix, ext := "", ""
	if sep := strings.LastIndexAny(name, "."); sep != -1 {
		ext = strings.ToUpper(name[sep+1:])
	}
	if dir, defined := l.dirs[ext]; defined {
		prefix = dir
	}
	filePath := path.Join(prefix, strings.TrimSpace(name))
	full := filepath.Join(l.root, filepath.FromSlash(filePath))

	// Reject any resolution that escapes the configured media root —
	// scene payloads can carry attacker-controlled names.
	rel, err := filepath.Rel(l.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, xerrors.Errorf("assets: %q escapes media root: %w", name, os.ErrPermission)
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, xerrors.Errorf("assets: open %q: %w", name, err)
	}
	return f, nil
}
