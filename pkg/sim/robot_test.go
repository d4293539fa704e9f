package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/robot"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRobot_HeadingIntegratesDrive(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	r := NewRobot(vc)
	r.TurnRate = 0.5
	ctx := context.Background()

	r.Move(ctx, robot.LeftDrive, 60)
	r.Move(ctx, robot.RightDrive, 20)
	vc.Advance(time.Second)

	h, err := r.Heading(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(h-20) > 1e-9 {
		t.Errorf("Heading = %v, want 20", h)
	}
}

func TestRobot_SetHeadingAndDrift(t *testing.T) {
	vc := clock.NewVirtualClock(epoch)
	r := NewRobot(vc)
	r.Drift = -2
	ctx := context.Background()

	r.Turn(90)
	if err := r.SetHeading(ctx, 0); err != nil {
		t.Fatal(err)
	}
	vc.Advance(5 * time.Second)

	h, _ := r.Heading(ctx)
	if math.Abs(h-350) > 1e-9 {
		t.Errorf("Heading = %v, want 350", h)
	}
}

func TestRobot_RecordsCommands(t *testing.T) {
	r := NewRobot(clock.NewVirtualClock(epoch))
	ctx := context.Background()

	r.Move(ctx, robot.Intake, 500)
	r.SetMechanism(ctx, robot.Descore, true)

	cmds := r.Commands()
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if cmds[0].String() != "intake=127" {
		t.Errorf("cmds[0] = %s, want intake=127", cmds[0])
	}
	if cmds[1].String() != "descore=true" {
		t.Errorf("cmds[1] = %s, want descore=true", cmds[1])
	}
	if !r.Extended(robot.Descore) || r.Velocity(robot.Intake) != 127 {
		t.Error("state not tracked")
	}

	r.ResetCommands()
	if len(r.Commands()) != 0 {
		t.Error("ResetCommands did not clear the log")
	}
}
