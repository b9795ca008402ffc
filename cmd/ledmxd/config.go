// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

package main

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// deviceConfig is one [DEVICE] entry in the fleet's YAML config file.
type deviceConfig struct {
	Host       string `yaml:"host"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	DeviceType string `yaml:"deviceType"`
}

// fleetConfig is the top-level shape of the process's config file,
// loaded with gopkg.in/yaml.v3 exactly as the teacher's load package
// loads its shader config.
type fleetConfig struct {
	MediaDir string         `yaml:"mediaDir"`
	Devices  []deviceConfig `yaml:"devices"`
}

func loadFleetConfig(path string) (*fleetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read config %q: %w", path, err)
	}
	var cfg fleetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, xerrors.Errorf("parse config %q: %w", path, err)
	}
	if len(cfg.Devices) == 0 {
		return nil, xerrors.Errorf("config %q declares no devices", path)
	}
	return &cfg, nil
}
