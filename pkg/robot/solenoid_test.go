package robot

import (
	"context"
	"testing"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func TestSolenoid_Set(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", L: gpio.High}
	s, err := NewSolenoidPin(pin)
	if err != nil {
		t.Fatalf("NewSolenoidPin: %v", err)
	}
	if pin.L != gpio.Low {
		t.Fatal("solenoid should start retracted")
	}

	ctx := context.Background()
	if err := s.Set(ctx, true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	if pin.L != gpio.High {
		t.Errorf("pin level = %v, want High", pin.L)
	}
	if err := s.Set(ctx, false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	if pin.L != gpio.Low {
		t.Errorf("pin level = %v, want Low", pin.L)
	}
}

func TestSolenoid_SetCancelled(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO27"}
	s, err := NewSolenoidPin(pin)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, true); err == nil {
		t.Error("expected error on cancelled context")
	}
	if pin.L != gpio.Low {
		t.Error("pin changed despite cancelled context")
	}
}
