// Copyright © 2024 LEDMX Authors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Command ledmxd wires a Fleet of LED-matrix devices to the built-in
// scenes and starts them. It is a thin example of process wiring, not
// the message-bus subscriber or HTTP front end described in spec §1 as
// external collaborators — those are left to the deployment.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/galvanized/ledmx"
	"github.com/galvanized/ledmx/assets"
	"github.com/galvanized/ledmx/scenes"
	"github.com/galvanized/ledmx/transport"
)

func main() {
	configPath := flag.String("config", "ledmx.yaml", "path to the fleet config file")
	mock := flag.Bool("mock", false, "start every device on the mock transport instead of real HTTP")
	mediaDir := flag.String("media", "", "override the config file's media directory")
	flag.Parse()

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg, err := loadFleetConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	mediaRoot := cfg.MediaDir
	if *mediaDir != "" {
		mediaRoot = *mediaDir
	}
	loc := assets.NewLocator(mediaRoot)

	registry := ledmx.NewRegistry()
	for _, s := range []*ledmx.Scene{scenes.Clear(), scenes.SolidFill(), scenes.StartupInfo(), scenes.Image(loc)} {
		if err := registry.Register(s); err != nil {
			log.Fatal().Err(err).Str("scene", s.Name).Msg("register built-in scene")
		}
	}

	fleet := ledmx.NewFleet(ledmx.WithLogger(log))
	for _, d := range cfg.Devices {
		xport := newTransport(d.Host, *mock)
		dev := ledmx.NewDevice(d.Host, d.Width, d.Height, xport)
		dev.DeviceType = d.DeviceType
		fleet.Add(dev)
	}

	drivers := map[string]ledmx.DriverFactory{
		"real": func(host string) transport.Transport { return transport.NewReal(host) },
		"mock": func(host string) transport.Transport { return transport.NewMock(0) },
	}
	gateway := ledmx.NewGateway(fleet, registry, fleet.Config(), scenes.Clear(), drivers)

	for _, host := range fleet.Hosts() {
		if err := gateway.Dispatch(ledmx.SwitchSceneCmd{Device: host, SceneName: scenes.StartupInfoName}); err != nil {
			log.Error().Err(err).Str("device", host).Msg("startup scene switch failed")
		}
	}

	log.Info().Int("devices", len(cfg.Devices)).Msg("ledmxd started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	fleet.Stop()
}

func newTransport(host string, mockOnly bool) transport.Transport {
	if mockOnly {
		return transport.NewMock(0)
	}
	return transport.NewReal(host)
}
