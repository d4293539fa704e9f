package robot

import (
	"context"
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

// Solenoid is a pneumatic valve on a GPIO output: High extends, Low retracts.
type Solenoid struct {
	pin gpio.PinIO
}

// NewSolenoid looks up a pin by name and drives it low (retracted).
// periph's host drivers must be initialised first.
func NewSolenoid(name string) (*Solenoid, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	return NewSolenoidPin(pin)
}

// NewSolenoidPin wraps an existing pin and drives it low.
func NewSolenoidPin(pin gpio.PinIO) (*Solenoid, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("init pin %s: %w", pin.Name(), err)
	}
	return &Solenoid{pin: pin}, nil
}

// Set extends or retracts the valve.
func (s *Solenoid) Set(ctx context.Context, extended bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	level := gpio.Low
	if extended {
		level = gpio.High
	}
	if err := s.pin.Out(level); err != nil {
		return fmt.Errorf("set pin %s: %w", s.pin.Name(), err)
	}
	return nil
}
