package replay

import (
	"math"

	"github.com/felixge/pidctrl"

	"github.com/gwillem/autonreplay/pkg/robot"
)

const (
	// DefaultGain is the proportional heading-correction gain.
	DefaultGain = 2.0
	// MaxCorrection bounds the steering nudge in stick units.
	MaxCorrection = 30.0
)

// Wrap180 normalizes an angle difference to [-180, 180].
func Wrap180(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 720)
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// HeadingCorrector turns the divergence between a recorded heading and the
// live heading into a differential steering correction. It is a P-only
// controller whose output is limited to ±MaxCorrection.
type HeadingCorrector struct {
	pid *pidctrl.PIDController
}

// NewHeadingCorrector returns a corrector with the given gain.
func NewHeadingCorrector(gain float64) *HeadingCorrector {
	pid := pidctrl.NewPIDController(gain, 0, 0)
	pid.SetOutputLimits(-MaxCorrection, MaxCorrection)
	pid.Set(0)
	return &HeadingCorrector{pid: pid}
}

// Gain returns the proportional gain.
func (h *HeadingCorrector) Gain() float64 {
	p, _, _ := h.pid.PID()
	return p
}

// SetGain replaces the proportional gain.
func (h *HeadingCorrector) SetGain(gain float64) {
	h.pid.SetPID(gain, 0, 0)
}

// Correction returns clamp(Wrap180(recorded-live)*gain, ±MaxCorrection).
func (h *HeadingCorrector) Correction(recorded, live float64) float64 {
	// The controller holds a zero setpoint and measures how far the live
	// heading has moved past the recorded one. Only the P term is non-zero,
	// so the step duration does not affect the output.
	return h.pid.UpdateDuration(Wrap180(live-recorded), PollPeriod)
}

// Apply corrects a pair of drive commands: the correction is subtracted from
// left and added to right, then both are clamped to the motor range.
func (h *HeadingCorrector) Apply(left, right int, recorded, live float64) (int, int, float64) {
	c := h.Correction(recorded, live)
	l := robot.ClampVelocity(int(float64(left) - c))
	r := robot.ClampVelocity(int(float64(right) + c))
	return l, r, c
}
