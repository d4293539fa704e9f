package main

import (
	"fmt"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/robot"
	"github.com/gwillem/autonreplay/pkg/sim"
)

// Simulated drive base: ~90 deg/s spin at full differential, slow clockwise drift.
const (
	simTurnRate = 0.35
	simDrift    = 1.5
)

// hardware is the robot the commands drive.
type hardware interface {
	robot.Actuators
	robot.HeadingSensor
}

func configPath() string {
	if opts.Config == "" {
		return robot.DefaultConfigFile
	}
	return opts.Config
}

// loadConfig reads the configuration file. In simulation a missing file
// falls back to the defaults.
func loadConfig(simulate bool) (*robot.Config, error) {
	path := configPath()
	if !robot.ConfigExists(path) {
		if simulate {
			return robot.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("no configuration at %s, run 'autonreplay setup' first", path)
	}
	cfg, err := robot.LoadConfigFrom(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openHardware connects to the configured robot, or builds a simulated one.
// The returned function releases it.
func openHardware(cfg *robot.Config, simulate bool, clk clock.Clock) (hardware, func(), error) {
	if simulate {
		r := sim.NewRobot(clk)
		r.TurnRate = simTurnRate
		r.Drift = simDrift
		return r, func() {}, nil
	}

	r, err := robot.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open robot: %w", err)
	}
	return r, func() { r.Close() }, nil
}
