package replay

import (
	"context"
	"errors"

	"github.com/gwillem/autonreplay/pkg/robot"
)

// Latches holds the toggle state of every two-state control.
type Latches struct {
	IntakeForward  bool
	IntakeReverse  bool
	OuttakeForward bool
	OuttakeReverse bool
	MidScoring     bool
	Descore        bool
	Unloader       bool
}

// ToggleSet turns button rising edges into latch flips and actuator
// commands. The zero value is ready to use; each playback or live-control
// run owns its own ToggleSet.
type ToggleSet struct {
	prev    Buttons
	latches Latches
}

// SetLatches replaces the latch state, keeping the previous button mask so
// held buttons do not fire again.
func (t *ToggleSet) SetLatches(l Latches) {
	t.latches = l
}

// Latches returns the current latch state.
func (t *ToggleSet) Latches() Latches {
	return t.latches
}

// Apply handles the rising edges of buttons relative to the mask passed in
// the previous call. It returns the buttons that fired. Actuator errors do
// not stop the remaining toggles; they are returned joined.
func (t *ToggleSet) Apply(ctx context.Context, a robot.Actuators, buttons Buttons) (Buttons, error) {
	fired := buttons.Rising(t.prev)
	t.prev = buttons
	if fired == 0 {
		return 0, nil
	}

	var errs []error
	move := func(m robot.MotorName, v int) {
		if err := a.Move(ctx, m, v); err != nil {
			errs = append(errs, err)
		}
	}
	set := func(m robot.Mechanism, on bool) {
		if err := a.SetMechanism(ctx, m, on); err != nil {
			errs = append(errs, err)
		}
	}
	spin := func(on bool, v int) int {
		if on {
			return v
		}
		return 0
	}

	l := &t.latches
	if fired.Has(ButtonR1) {
		l.IntakeForward = !l.IntakeForward
		move(robot.Intake, spin(l.IntakeForward, robot.MaxVelocity))
	}
	if fired.Has(ButtonR2) {
		l.IntakeReverse = !l.IntakeReverse
		move(robot.Intake, spin(l.IntakeReverse, -robot.MaxVelocity))
	}
	if fired.Has(ButtonL1) {
		l.OuttakeForward = !l.OuttakeForward
		move(robot.Outtake, spin(l.OuttakeForward, robot.MaxVelocity))
	}
	if fired.Has(ButtonL2) {
		l.OuttakeReverse = !l.OuttakeReverse
		move(robot.Outtake, spin(l.OuttakeReverse, -robot.MaxVelocity))
	}
	if fired.Has(ButtonX) {
		l.MidScoring = !l.MidScoring
		set(robot.MidScoring, l.MidScoring)
		// Entering mid-scoring runs both rollers in reverse.
		if l.MidScoring {
			move(robot.Intake, -robot.MaxVelocity)
			move(robot.Outtake, -robot.MaxVelocity)
		}
	}
	if fired.Has(ButtonA) {
		l.Descore = !l.Descore
		set(robot.Descore, l.Descore)
	}
	if fired.Has(ButtonB) {
		l.Unloader = !l.Unloader
		set(robot.Unloader, l.Unloader)
	}

	return fired, errors.Join(errs...)
}
