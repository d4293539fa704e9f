// Package robot provides the hardware vocabulary and backends for the drive
// base: motor groups, two-state mechanisms and the heading sensor.
package robot

import (
	"context"
	"math"
)

// MotorName identifies a velocity-controlled motor group.
type MotorName string

// Motor groups of the drive base and manipulator.
const (
	LeftDrive  MotorName = "left_drive"
	RightDrive MotorName = "right_drive"
	Intake     MotorName = "intake"
	Outtake    MotorName = "outtake"
)

// AllMotors returns all motor groups in a fixed order.
func AllMotors() []MotorName {
	return []MotorName{
		LeftDrive,
		RightDrive,
		Intake,
		Outtake,
	}
}

// Mechanism identifies a two-state (double-acting) actuator.
type Mechanism string

// Mechanisms driven by a boolean set-state.
const (
	MidScoring Mechanism = "mid_scoring"
	Descore    Mechanism = "descore"
	Unloader   Mechanism = "unloader"
)

// AllMechanisms returns all mechanisms in a fixed order.
func AllMechanisms() []Mechanism {
	return []Mechanism{
		MidScoring,
		Descore,
		Unloader,
	}
}

// MaxVelocity is the magnitude limit of a motor command.
const MaxVelocity = 127

// Actuators drives the motor groups and mechanisms.
type Actuators interface {
	// Move commands a motor group with a signed velocity in [-127, 127].
	Move(ctx context.Context, motor MotorName, velocity int) error
	// SetMechanism extends (true) or retracts (false) a mechanism.
	SetMechanism(ctx context.Context, m Mechanism, extended bool) error
}

// HeadingSensor is an orientation sensor with a settable heading reference.
type HeadingSensor interface {
	// Heading returns the current heading in degrees, in [0, 360).
	Heading(ctx context.Context) (float64, error)
	// SetHeading redefines the current orientation as deg.
	SetHeading(ctx context.Context, deg float64) error
}

// ClampVelocity limits v to [-MaxVelocity, MaxVelocity].
func ClampVelocity(v int) int {
	if v > MaxVelocity {
		return MaxVelocity
	}
	if v < -MaxVelocity {
		return -MaxVelocity
	}
	return v
}

// NormalizeHeading wraps deg into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// StopMotors commands every motor group to zero and returns the first error.
func StopMotors(ctx context.Context, a Actuators) error {
	var first error
	for _, m := range AllMotors() {
		if err := a.Move(ctx, m, 0); err != nil && first == nil {
			first = err
		}
	}
	return first
}
