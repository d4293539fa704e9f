package robot

import (
	"fmt"
	"sort"
)

// DefaultMaxOutput is the bridge's full-scale motor value.
const DefaultMaxOutput = 255

// MotorCalibration maps one physical motor onto a bridge channel.
type MotorCalibration struct {
	Channel   int       `json:"channel"`
	Group     MotorName `json:"group"`
	Reversed  bool      `json:"reversed,omitempty"`
	MaxOutput int       `json:"max_output,omitempty"`
}

// Calibration holds calibration data for all motors, keyed by motor name
// (for example "left_front").
type Calibration map[string]MotorCalibration

// Output converts a velocity in [-127, 127] to a raw bridge value in
// [-MaxOutput, MaxOutput], honouring the motor's direction.
func (c MotorCalibration) Output(velocity int) int {
	max := c.MaxOutput
	if max <= 0 {
		max = DefaultMaxOutput
	}
	out := ClampVelocity(velocity) * max / MaxVelocity
	if c.Reversed {
		out = -out
	}
	return out
}

// Group returns the calibrations of every motor in a group, ordered by channel.
func (c Calibration) Group(name MotorName) []MotorCalibration {
	var group []MotorCalibration
	for _, mc := range c {
		if mc.Group == name {
			group = append(group, mc)
		}
	}
	sort.Slice(group, func(i, j int) bool { return group[i].Channel < group[j].Channel })
	return group
}

// Channels returns the bridge channels for all motors, grouped in
// AllMotors() order.
func (c Calibration) Channels() []int {
	ids := make([]int, 0, len(c))
	// Use AllMotors() to ensure consistent ordering
	for _, name := range AllMotors() {
		for _, mc := range c.Group(name) {
			ids = append(ids, mc.Channel)
		}
	}
	return ids
}

// ByChannel returns motor name and calibration for a given bridge channel.
func (c Calibration) ByChannel(ch int) (string, MotorCalibration, bool) {
	for name, mc := range c {
		if mc.Channel == ch {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}

// Validate reports motors sharing a channel and groups without motors.
func (c Calibration) Validate() error {
	seen := make(map[int]string, len(c))
	for name, mc := range c {
		if other, ok := seen[mc.Channel]; ok {
			return fmt.Errorf("motors %s and %s share channel %d", other, name, mc.Channel)
		}
		seen[mc.Channel] = name
	}
	for _, m := range AllMotors() {
		if len(c.Group(m)) == 0 {
			return fmt.Errorf("no motor assigned to %s", m)
		}
	}
	return nil
}
