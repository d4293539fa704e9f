package replay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gwillem/autonreplay/pkg/robot"
)

// Dispatch describes one frame sent to the actuators during playback.
type Dispatch struct {
	Index       int
	Frame       Frame
	Elapsed     time.Duration // playback clock when dispatched
	LiveHeading float64
	Correction  float64
	Left        int // commanded left drive
	Right       int // commanded right drive
	Fired       Buttons
}

// Summary aggregates a playback run.
type Summary struct {
	Frames        int
	Toggles       int
	Duration      time.Duration
	MaxCorrection float64
	Latches       Latches
	Fired         Buttons // every button that toggled at least once
}

// Playback replays the log against the live heading. An empty log is first
// reloaded from the store; if there is still nothing to play it returns
// ErrNoRecording without touching the actuators.
//
// Playback blocks until every frame has been dispatched or ctx is done. In
// both cases the motors are stopped and the session returns to Idle. cb may
// be nil.
func (s *Session) Playback(ctx context.Context, cb func(Dispatch)) (*Summary, error) {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.state = Playing
	frames := s.frames
	gain := s.gain
	s.mu.Unlock()
	defer s.setState(Idle)

	if len(frames) == 0 {
		loaded, err := s.load()
		if err != nil {
			s.logf("Load failed: %v", err)
		}
		if len(loaded) == 0 {
			s.fb.Print(0, "NO RECORDING!")
			return nil, ErrNoRecording
		}
		frames = loaded
	}

	p := &player{
		session: s,
		frames:  frames,
		corr:    NewHeadingCorrector(gain),
		cb:      cb,
	}
	sum, err := p.run(ctx)

	if stopErr := robot.StopMotors(context.WithoutCancel(ctx), s.act); stopErr != nil {
		s.logf("Warning: failed to stop motors: %v", stopErr)
	}
	if err != nil {
		s.fb.Print(0, "REPLAY ABORTED")
		return sum, err
	}
	s.fb.Print(0, "REPLAY COMPLETE")
	return sum, nil
}

// player is the state of one playback run. Nothing in it outlives the run.
type player struct {
	session *Session
	frames  []Frame
	corr    *HeadingCorrector
	toggles ToggleSet
	cb      func(Dispatch)
	summary Summary
}

func (p *player) run(ctx context.Context) (*Summary, error) {
	s := p.session

	// Same heading reference as StartRecording.
	if err := s.imu.SetHeading(ctx, 0); err != nil {
		s.logf("Warning: heading reset failed: %v", err)
	}
	if err := s.sleep(ctx, SettleDelay); err != nil {
		return &p.summary, err
	}

	s.fb.Print(0, "REPLAYING...")
	start := s.clock.Now()
	next := 0
	for next < len(p.frames) {
		elapsed := s.clock.Since(start)
		ms := uint32(elapsed.Milliseconds())
		for next < len(p.frames) && p.frames[next].Timestamp <= ms {
			p.dispatch(ctx, next, elapsed)
			next++
		}
		p.summary.Duration = elapsed
		if next == len(p.frames) {
			break
		}
		if err := s.sleep(ctx, PollPeriod); err != nil {
			p.summary.Latches = p.toggles.Latches()
			return &p.summary, err
		}
	}

	p.summary.Latches = p.toggles.Latches()
	return &p.summary, nil
}

func (p *player) dispatch(ctx context.Context, i int, elapsed time.Duration) {
	s := p.session
	f := p.frames[i]
	d := Dispatch{
		Index:   i,
		Frame:   f,
		Elapsed: elapsed,
		Left:    int(f.LeftStick),
		Right:   int(f.RightStick),
	}

	live, err := s.imu.Heading(ctx)
	if err != nil {
		s.logf("Heading read failed, frame %d uncorrected: %v", i, err)
	} else {
		d.LiveHeading = live
		d.Left, d.Right, d.Correction = p.corr.Apply(d.Left, d.Right, float64(f.Heading), live)
	}

	if err := s.act.Move(ctx, robot.LeftDrive, d.Left); err != nil {
		s.logf("Write error: %v", err)
	}
	if err := s.act.Move(ctx, robot.RightDrive, d.Right); err != nil {
		s.logf("Write error: %v", err)
	}

	fired, err := p.toggles.Apply(ctx, s.act, f.Buttons)
	if err != nil {
		s.logf("Toggle error: %v", err)
	}
	d.Fired = fired

	p.summary.Frames++
	p.summary.Toggles += popcount(fired)
	p.summary.Fired |= fired
	if c := math.Abs(d.Correction); c > p.summary.MaxCorrection {
		p.summary.MaxCorrection = c
	}

	if p.cb != nil {
		p.cb(d)
	}
}

// sleep waits d on the session clock or until ctx is done.
func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}

func popcount(b Buttons) int {
	n := 0
	for ; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// IsNoRecording reports whether err is the "nothing to play" outcome.
func IsNoRecording(err error) bool {
	return errors.Is(err, ErrNoRecording)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d frames, %d toggles, %s, max correction %.1f",
		s.Frames, s.Toggles, s.Duration.Round(time.Millisecond), s.MaxCorrection)
}
