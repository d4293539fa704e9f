package replay_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/replay"
	"github.com/gwillem/autonreplay/pkg/sim"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// display captures operator feedback.
type display struct {
	mu      sync.Mutex
	lines   []string
	rumbles []string
}

func (d *display) Print(_ int, text string) {
	d.mu.Lock()
	d.lines = append(d.lines, text)
	d.mu.Unlock()
}

func (d *display) Rumble(pattern string) {
	d.mu.Lock()
	d.rumbles = append(d.rumbles, pattern)
	d.mu.Unlock()
}

func (d *display) has(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.lines {
		if l == text {
			return true
		}
	}
	return false
}

// fixedIMU reports a constant heading and ignores resets.
type fixedIMU struct {
	heading float64
}

func (f *fixedIMU) Heading(context.Context) (float64, error) {
	return f.heading, nil
}

func (f *fixedIMU) SetHeading(context.Context, float64) error {
	return nil
}

type fixture struct {
	clock   *clock.VirtualClock
	robot   *sim.Robot
	pad     *sim.Gamepad
	display *display
	store   replay.FileStore
	session *replay.Session
}

func newFixture(t *testing.T, stepping bool) *fixture {
	t.Helper()
	vc := clock.NewVirtualClock(epoch)
	if stepping {
		vc = clock.NewSteppingClock(epoch)
	}
	f := &fixture{
		clock:   vc,
		robot:   sim.NewRobot(vc),
		pad:     &sim.Gamepad{},
		display: &display{},
		store:   replay.FileStore{Path: filepath.Join(t.TempDir(), "auton_recording.bin")},
	}
	s, err := replay.NewSession(replay.Config{
		Actuators: f.robot,
		Heading:   f.robot,
		Gamepad:   f.pad,
		Feedback:  f.display,
		Store:     f.store,
		Clock:     vc,
		Logf:      t.Logf,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.session = s
	return f
}

// record captures one frame per input at the sampling period.
func (f *fixture) record(t *testing.T, inputs ...replay.Input) {
	t.Helper()
	ctx := context.Background()
	f.session.StartRecording(ctx)
	for _, in := range inputs {
		f.clock.Advance(replay.SamplePeriod)
		f.pad.Set(in)
		if err := f.session.RecordFrame(ctx); err != nil {
			t.Fatalf("RecordFrame: %v", err)
		}
	}
	if err := f.session.StopRecording(false); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
}

func commandStrings(cmds []sim.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}
