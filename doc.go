// Package autonreplay records a driver's control of a tank-drive robot and
// replays it as an autonomous routine, steering against heading drift with
// an inertial sensor.
//
// # Installation
//
//	go install github.com/gwillem/autonreplay/cmd/autonreplay@latest
//
// # Usage
//
// First, run setup to find the motor bridge and describe the mechanisms:
//
//	autonreplay setup
//
// Drive the robot and press enter to start and stop a recording:
//
//	autonreplay drive
//
// Then play it back unattended:
//
//	autonreplay auton
//
// Every command that touches the robot accepts --sim to run against a
// simulated drive base instead.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/autonreplay: CLI with setup, drive, auton and inspect commands
//   - pkg/replay: frame format, recorder, persistence and drift-corrected playback
//   - pkg/robot: hardware backends, calibration and configuration
//   - pkg/teleop: manual control loop and operator console
//   - pkg/clock: real and virtual clocks
//   - pkg/sim: simulated robot and gamepad
package autonreplay
