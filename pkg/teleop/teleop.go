// Package teleop provides the manual-control loop that drives the robot from
// the gamepad, records it into a replay session and runs playback.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/autonreplay/pkg/replay"
	"github.com/gwillem/autonreplay/pkg/robot"
)

// Defaults for the control loop.
const (
	DefaultHz       = 50
	DefaultDeadband = 8
)

// State is one snapshot of the control loop.
type State struct {
	Input     replay.Input // gamepad after deadband
	Left      int          // commanded left drive
	Right     int          // commanded right drive
	Heading   float64
	Status    replay.Status
	Latches   replay.Latches
	Timestamp time.Time
	Error     error
}

// Config holds the collaborators of a Controller.
type Config struct {
	Actuators robot.Actuators
	Heading   robot.HeadingSensor
	Gamepad   replay.Gamepad
	Session   *replay.Session
	Hz        int
	Deadband  int
}

// Controller manages the manual control loop. Recording and playback
// commands are queued and run on the loop goroutine, so a playback blocks
// manual control until it ends.
type Controller struct {
	act      robot.Actuators
	imu      robot.HeadingSensor
	pad      replay.Gamepad
	session  *replay.Session
	hz       int
	deadband int

	toggles replay.ToggleSet
	cmds    chan command

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string
}

type command struct {
	name string
	run  func(ctx context.Context)
}

// NewController creates a controller. Session must be built on the same
// actuators and heading sensor.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Actuators == nil || cfg.Heading == nil {
		return nil, errors.New("actuators and heading sensor required")
	}
	if cfg.Gamepad == nil {
		return nil, errors.New("gamepad required")
	}
	if cfg.Session == nil {
		return nil, errors.New("session required")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.Deadband < 0 {
		cfg.Deadband = 0
	}

	return &Controller{
		act:      cfg.Actuators,
		imu:      cfg.Heading,
		pad:      cfg.Gamepad,
		session:  cfg.Session,
		hz:       cfg.Hz,
		deadband: cfg.Deadband,
		cmds:     make(chan command, 4),
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 32),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Session returns the replay session driven by the controller.
func (c *Controller) Session() *replay.Session {
	return c.session
}

// Logf writes a timestamped message to the log channel. It is suitable as
// replay.Config.Logf.
func (c *Controller) Logf(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// StartRecording queues the start of a new recording.
func (c *Controller) StartRecording() bool {
	return c.enqueue("start recording", func(ctx context.Context) {
		c.session.StartRecording(ctx)
	})
}

// StopRecording queues the end of the recording, saving it if persist is set.
func (c *Controller) StopRecording(persist bool) bool {
	return c.enqueue("stop recording", func(ctx context.Context) {
		if err := c.session.StopRecording(persist); err != nil {
			c.Logf("Save failed: %v", err)
		}
	})
}

// ToggleRecording starts a recording when idle and stops and saves it when
// recording.
func (c *Controller) ToggleRecording() bool {
	return c.enqueue("toggle recording", func(ctx context.Context) {
		if c.session.IsRecording() {
			if err := c.session.StopRecording(true); err != nil {
				c.Logf("Save failed: %v", err)
			}
			return
		}
		c.session.StartRecording(ctx)
	})
}

// ClearRecording queues clearing the in-memory log.
func (c *Controller) ClearRecording() bool {
	return c.enqueue("clear recording", func(context.Context) {
		c.session.ClearRecording()
	})
}

// Playback queues a playback of the current recording.
func (c *Controller) Playback() bool {
	return c.enqueue("playback", c.playback)
}

func (c *Controller) enqueue(name string, run func(ctx context.Context)) bool {
	select {
	case c.cmds <- command{name: name, run: run}:
		return true
	default:
		c.Logf("Busy, dropped %s", name)
		return false
	}
}

// Start runs the control loop until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.Logf("Manual control started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case cmd := <-c.cmds:
			cmd.run(ctx)
			c.publish(ctx, State{Timestamp: time.Now()})
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// step runs one manual-control tick.
func (c *Controller) step(ctx context.Context) {
	in, err := c.pad.Read(ctx)
	if err != nil {
		c.Logf("Gamepad error: %v", err)
		c.sendState(State{Error: err, Status: c.session.Status(), Timestamp: time.Now()})
		return
	}
	in.Left = c.applyDeadband(in.Left)
	in.Right = c.applyDeadband(in.Right)
	left := robot.ClampVelocity(in.Left)
	right := robot.ClampVelocity(in.Right)

	if err := c.act.Move(ctx, robot.LeftDrive, left); err != nil {
		c.Logf("Write error: %v", err)
	}
	if err := c.act.Move(ctx, robot.RightDrive, right); err != nil {
		c.Logf("Write error: %v", err)
	}
	if _, err := c.toggles.Apply(ctx, c.act, in.Buttons); err != nil {
		c.Logf("Toggle error: %v", err)
	}

	if err := c.session.RecordFrame(ctx); err != nil {
		c.Logf("Record error: %v", err)
	}

	c.publish(ctx, State{
		Input:     in,
		Left:      left,
		Right:     right,
		Timestamp: time.Now(),
	})
}

func (c *Controller) playback(ctx context.Context) {
	// The manual latches do not carry into the recorded run.
	if err := robot.StopMotors(ctx, c.act); err != nil {
		c.Logf("Warning: failed to stop motors: %v", err)
	}

	c.Logf("Playback of %d frames", c.session.FrameCount())
	sum, err := c.session.Playback(ctx, func(d replay.Dispatch) {
		c.sendState(State{
			Input:     replay.Input{Left: int(d.Frame.LeftStick), Right: int(d.Frame.RightStick), Buttons: d.Frame.Buttons},
			Left:      d.Left,
			Right:     d.Right,
			Heading:   d.LiveHeading,
			Status:    c.session.Status(),
			Timestamp: time.Now(),
		})
	})
	switch {
	case replay.IsNoRecording(err):
		c.Logf("Nothing to play back")
	case err != nil:
		c.Logf("Playback stopped: %v", err)
	default:
		c.Logf("Playback complete: %s", sum)
	}

	c.toggles.SetLatches(resumeLatches(c.toggles.Latches(), sum))
}

// resumeLatches returns the live latches after a playback. Playback stops
// every roller and leaves each mechanism where its last toggle put it.
func resumeLatches(live replay.Latches, sum *replay.Summary) replay.Latches {
	l := replay.Latches{
		MidScoring: live.MidScoring,
		Descore:    live.Descore,
		Unloader:   live.Unloader,
	}
	if sum == nil {
		return l
	}
	if sum.Fired.Has(replay.ButtonX) {
		l.MidScoring = sum.Latches.MidScoring
	}
	if sum.Fired.Has(replay.ButtonA) {
		l.Descore = sum.Latches.Descore
	}
	if sum.Fired.Has(replay.ButtonB) {
		l.Unloader = sum.Latches.Unloader
	}
	return l
}

func (c *Controller) publish(ctx context.Context, s State) {
	if h, err := c.imu.Heading(ctx); err == nil {
		s.Heading = h
	}
	s.Status = c.session.Status()
	s.Latches = c.toggles.Latches()
	c.sendState(s)
}

func (c *Controller) applyDeadband(v int) int {
	if v > -c.deadband && v < c.deadband {
		return 0
	}
	return v
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if c.session.IsRecording() {
		if err := c.session.StopRecording(false); err != nil {
			c.Logf("Warning: %v", err)
		}
	}
	if err := robot.StopMotors(context.Background(), c.act); err != nil {
		c.Logf("Warning: failed to stop motors: %v", err)
	} else {
		c.Logf("Motors stopped")
	}
	c.Logf("Manual control stopped")
}
