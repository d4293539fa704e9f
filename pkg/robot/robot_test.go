package robot

import (
	"context"
	"math"
	"testing"
)

type fakeBridge struct {
	motors map[int]int
	yaw    float64
}

func (b *fakeBridge) SetMotor(_ context.Context, ch, value int) error {
	b.motors[ch] = value
	return nil
}

func (b *fakeBridge) Yaw(context.Context) (float64, error) { return b.yaw, nil }
func (b *fakeBridge) Close() error                         { return nil }

type fakeMechanism struct{ extended bool }

func (m *fakeMechanism) Set(_ context.Context, extended bool) error {
	m.extended = extended
	return nil
}

func TestRobot_Move(t *testing.T) {
	fb := &fakeBridge{motors: make(map[int]int)}
	r := newRobot(fb, DefaultCalibration())
	ctx := context.Background()

	if err := r.Move(ctx, LeftDrive, 127); err != nil {
		t.Fatalf("Move left: %v", err)
	}
	if err := r.Move(ctx, RightDrive, 127); err != nil {
		t.Fatalf("Move right: %v", err)
	}

	want := map[int]int{0: 255, 1: 255, 2: -255, 3: -255}
	for ch, v := range want {
		if fb.motors[ch] != v {
			t.Errorf("channel %d = %d, want %d", ch, fb.motors[ch], v)
		}
	}

	if err := r.Move(ctx, MotorName("turret"), 10); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestRobot_HeadingReference(t *testing.T) {
	fb := &fakeBridge{motors: make(map[int]int), yaw: 123.5}
	r := newRobot(fb, DefaultCalibration())
	ctx := context.Background()

	if err := r.SetHeading(ctx, 0); err != nil {
		t.Fatalf("SetHeading: %v", err)
	}

	fb.yaw = 113.5
	h, err := r.Heading(ctx)
	if err != nil {
		t.Fatalf("Heading: %v", err)
	}
	if math.Abs(h-350) > 1e-9 {
		t.Errorf("Heading = %v, want 350", h)
	}
}

func TestRobot_SetMechanism(t *testing.T) {
	r := newRobot(&fakeBridge{motors: make(map[int]int)}, DefaultCalibration())
	descore := &fakeMechanism{}
	r.mechanisms[Descore] = descore

	if err := r.SetMechanism(context.Background(), Descore, true); err != nil {
		t.Fatalf("SetMechanism: %v", err)
	}
	if !descore.extended {
		t.Error("descore not extended")
	}
	if err := r.SetMechanism(context.Background(), Unloader, true); err == nil {
		t.Error("expected error for unwired mechanism")
	}
}

func TestRobot_CloseStopsMotors(t *testing.T) {
	fb := &fakeBridge{motors: make(map[int]int)}
	r := newRobot(fb, DefaultCalibration())
	ctx := context.Background()
	for _, m := range AllMotors() {
		r.Move(ctx, m, 90)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, ch := range DefaultCalibration().Channels() {
		if fb.motors[ch] != 0 {
			t.Errorf("channel %d = %d after Close, want 0", ch, fb.motors[ch])
		}
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{-10, 350},
		{725, 5},
	}
	for _, tt := range tests {
		if got := NormalizeHeading(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
