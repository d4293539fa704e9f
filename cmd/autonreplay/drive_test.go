package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/replay"
	"github.com/gwillem/autonreplay/pkg/robot"
	"github.com/gwillem/autonreplay/pkg/teleop"
)

func TestKeyPad(t *testing.T) {
	p := &keyPad{}
	for i := 0; i < 5; i++ {
		p.nudge(stickStep, -stickStep)
	}
	p.toggle(replay.ButtonX)
	p.toggle(replay.ButtonA)
	p.toggle(replay.ButtonX)

	in, err := p.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if in.Left != 127 || in.Right != -127 {
		t.Errorf("sticks = %d, %d; want clamped to ±127", in.Left, in.Right)
	}
	if in.Buttons != replay.PackButtons(replay.ButtonA) {
		t.Errorf("buttons = %v, want A", in.Buttons)
	}

	p.centre()
	if in, _ := p.Read(context.Background()); in.Left != 0 || in.Right != 0 {
		t.Errorf("after centre: %+v", in)
	}
}

func TestRenderFrames_Limit(t *testing.T) {
	frames := make([]replay.Frame, 5)
	for i := range frames {
		frames[i].Timestamp = uint32(20 * (i + 1))
	}
	out := renderFrames(frames, 2)
	if !strings.Contains(out, "... 3 more") {
		t.Errorf("missing truncation note:\n%s", out)
	}
	if strings.Contains(renderFrames(frames, 0), "more") {
		t.Error("limit 0 should print every frame")
	}
}

func TestRenderConsole_ShowsRecentHistory(t *testing.T) {
	c := teleop.NewConsole(clock.NewVirtualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)), 8, nil)
	if out := renderConsole(c, 2); strings.Contains(out, "rumble") {
		t.Errorf("empty console rendered history:\n%s", out)
	}

	c.Print(0, "RECORDING...")
	c.Rumble("-")
	c.Print(0, "STOPPED: 4 frames")
	c.Print(1, "SAVED")

	out := renderConsole(c, 2)
	for _, want := range []string{"STOPPED: 4 frames", "SAVED", "12:00:00.000 1 SAVED"} {
		if !strings.Contains(out, want) {
			t.Errorf("console missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "rumble") {
		t.Errorf("entry older than the last 2 rendered:\n%s", out)
	}
}

func TestRenderChannelMap(t *testing.T) {
	out := renderChannelMap(robot.DefaultCalibration())
	for _, want := range []string{"left_front", "right_back", "intake", "outtake", "reversed"} {
		if !strings.Contains(out, want) {
			t.Errorf("channel map missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "left_front") > strings.Index(out, "outtake") {
		t.Errorf("channels not in motor-group order:\n%s", out)
	}
}
