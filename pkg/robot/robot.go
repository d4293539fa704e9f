package robot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"periph.io/x/periph/host"
)

// motorBridge is the part of Bridge the Robot needs.
type motorBridge interface {
	SetMotor(ctx context.Context, ch, value int) error
	Yaw(ctx context.Context) (float64, error)
	Close() error
}

type mechanismDriver interface {
	Set(ctx context.Context, extended bool) error
}

// Robot drives real hardware: motors and IMU through the serial bridge,
// mechanisms through GPIO solenoids or bus servos.
type Robot struct {
	bridge     motorBridge
	motors     Calibration
	mechanisms map[Mechanism]mechanismDriver
	servos     *ServoBus

	mu            sync.Mutex
	headingOffset float64
}

// Open connects to every device described by cfg.
func Open(cfg *Config) (*Robot, error) {
	if !cfg.IsConfigured() {
		return nil, errors.New("bridge port not configured")
	}
	if err := cfg.Motors.Validate(); err != nil {
		return nil, fmt.Errorf("motor calibration: %w", err)
	}

	bridge, err := OpenBridge(cfg.Bridge)
	if err != nil {
		return nil, err
	}
	r := newRobot(bridge, cfg.Motors)

	var servoIDs []int
	for _, m := range AllMechanisms() {
		if mc, ok := cfg.Mechanisms[m]; ok && mc.Kind == MechanismServo {
			servoIDs = append(servoIDs, mc.ServoID)
		}
	}
	if len(servoIDs) > 0 {
		if cfg.ServoPort == "" {
			r.Close()
			return nil, errors.New("servo mechanisms configured without servo_port")
		}
		if r.servos, err = OpenServoBus(cfg.ServoPort, servoIDs...); err != nil {
			r.Close()
			return nil, err
		}
		if err := r.servos.Enable(context.Background()); err != nil {
			r.Close()
			return nil, fmt.Errorf("enable servos: %w", err)
		}
	}

	hostInit := false
	for _, m := range AllMechanisms() {
		mc, ok := cfg.Mechanisms[m]
		if !ok {
			continue
		}
		switch mc.Kind {
		case MechanismGPIO:
			if !hostInit {
				if _, err := host.Init(); err != nil {
					r.Close()
					return nil, fmt.Errorf("init gpio host: %w", err)
				}
				hostInit = true
			}
			s, err := NewSolenoid(mc.Pin)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%s: %w", m, err)
			}
			r.mechanisms[m] = s
		case MechanismServo:
			r.mechanisms[m] = r.servos.Mechanism(mc.ServoID, mc.Retracted, mc.Extended)
		default:
			r.Close()
			return nil, fmt.Errorf("%s: unknown mechanism kind %q", m, mc.Kind)
		}
	}

	return r, nil
}

func newRobot(bridge motorBridge, motors Calibration) *Robot {
	return &Robot{
		bridge:     bridge,
		motors:     motors,
		mechanisms: make(map[Mechanism]mechanismDriver),
	}
}

// Close stops the motors and releases all devices.
func (r *Robot) Close() error {
	var errs []error
	if err := StopMotors(context.Background(), r); err != nil {
		errs = append(errs, err)
	}
	if r.servos != nil {
		if err := r.servos.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.bridge.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Move writes a velocity to every motor of the group.
func (r *Robot) Move(ctx context.Context, motor MotorName, velocity int) error {
	group := r.motors.Group(motor)
	if len(group) == 0 {
		return fmt.Errorf("no motors in group %s", motor)
	}
	for _, mc := range group {
		if err := r.bridge.SetMotor(ctx, mc.Channel, mc.Output(velocity)); err != nil {
			return fmt.Errorf("move %s: %w", motor, err)
		}
	}
	return nil
}

// SetMechanism extends or retracts a mechanism.
func (r *Robot) SetMechanism(ctx context.Context, m Mechanism, extended bool) error {
	drv, ok := r.mechanisms[m]
	if !ok {
		return fmt.Errorf("mechanism %s not wired", m)
	}
	return drv.Set(ctx, extended)
}

// Heading returns the IMU yaw relative to the last SetHeading reference.
func (r *Robot) Heading(ctx context.Context) (float64, error) {
	yaw, err := r.bridge.Yaw(ctx)
	if err != nil {
		return 0, fmt.Errorf("read heading: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return NormalizeHeading(yaw - r.headingOffset), nil
}

// SetHeading makes the current orientation read as deg.
func (r *Robot) SetHeading(ctx context.Context, deg float64) error {
	yaw, err := r.bridge.Yaw(ctx)
	if err != nil {
		return fmt.Errorf("read heading: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headingOffset = yaw - deg
	return nil
}
