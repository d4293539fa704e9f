// Package sim provides a simulated drive base and gamepad for running the
// record/playback engine without hardware.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/robot"
)

// Command is one actuator call seen by the simulator.
type Command struct {
	At        time.Time
	Motor     robot.MotorName // set for Move
	Velocity  int
	Mechanism robot.Mechanism // set for SetMechanism
	Extended  bool
}

func (c Command) String() string {
	if c.Mechanism != "" {
		return fmt.Sprintf("%s=%t", c.Mechanism, c.Extended)
	}
	return fmt.Sprintf("%s=%d", c.Motor, c.Velocity)
}

// Robot is a simulated tank-drive robot. Its heading integrates the
// difference between left and right drive commands (TurnRate degrees per
// second per unit of difference) plus a constant Drift in degrees per second.
type Robot struct {
	TurnRate float64
	Drift    float64

	clock clock.Clock

	mu         sync.Mutex
	motors     map[robot.MotorName]int
	mechanisms map[robot.Mechanism]bool
	commands   []Command
	yaw        float64
	offset     float64
	last       time.Time
}

// NewRobot creates a stationary robot at yaw 0.
func NewRobot(clk clock.Clock) *Robot {
	return &Robot{
		clock:      clk,
		motors:     make(map[robot.MotorName]int),
		mechanisms: make(map[robot.Mechanism]bool),
		last:       clk.Now(),
	}
}

// Move implements robot.Actuators.
func (r *Robot) Move(ctx context.Context, motor robot.MotorName, velocity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.integrate()
	v := robot.ClampVelocity(velocity)
	r.motors[motor] = v
	r.commands = append(r.commands, Command{At: r.last, Motor: motor, Velocity: v})
	return nil
}

// SetMechanism implements robot.Actuators.
func (r *Robot) SetMechanism(ctx context.Context, m robot.Mechanism, extended bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.integrate()
	r.mechanisms[m] = extended
	r.commands = append(r.commands, Command{At: r.last, Mechanism: m, Extended: extended})
	return nil
}

// Heading implements robot.HeadingSensor.
func (r *Robot) Heading(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.integrate()
	return robot.NormalizeHeading(r.yaw - r.offset), nil
}

// SetHeading implements robot.HeadingSensor.
func (r *Robot) SetHeading(ctx context.Context, deg float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.integrate()
	r.offset = r.yaw - deg
	return nil
}

// Turn rotates the robot by deg, as if pushed.
func (r *Robot) Turn(deg float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrate()
	r.yaw += deg
}

// Velocity returns the last command of a motor group.
func (r *Robot) Velocity(m robot.MotorName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.motors[m]
}

// Extended returns the state of a mechanism.
func (r *Robot) Extended(m robot.Mechanism) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mechanisms[m]
}

// Commands returns a copy of every actuator call so far.
func (r *Robot) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// ResetCommands clears the command log.
func (r *Robot) ResetCommands() {
	r.mu.Lock()
	r.commands = nil
	r.mu.Unlock()
}

// integrate advances the heading model to the clock's current time.
// Must be called with r.mu held.
func (r *Robot) integrate() {
	now := r.clock.Now()
	dt := now.Sub(r.last).Seconds()
	if dt <= 0 {
		return
	}
	diff := float64(r.motors[robot.LeftDrive] - r.motors[robot.RightDrive])
	r.yaw += (diff*r.TurnRate + r.Drift) * dt
	r.last = now
}
