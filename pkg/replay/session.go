package replay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
	"github.com/gwillem/autonreplay/pkg/robot"
)

const (
	// SamplePeriod is the cadence the caller is expected to call RecordFrame at.
	SamplePeriod = 20 * time.Millisecond
	// PollPeriod is the playback loop period.
	PollPeriod = 10 * time.Millisecond
	// SettleDelay follows the heading reset before playback starts.
	SettleDelay = 50 * time.Millisecond
)

// State is the session mode.
type State int

const (
	Idle State = iota
	Recording
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Input is one sample of the operator's controls.
type Input struct {
	Left    int // left stick Y, [-127, 127]
	Right   int // right stick Y, [-127, 127]
	Buttons Buttons
}

// Gamepad is the operator's controller.
type Gamepad interface {
	Read(ctx context.Context) (Input, error)
}

// Feedback is the operator display: two text lines and a rumble motor.
type Feedback interface {
	Print(line int, text string)
	Rumble(pattern string)
}

type nopFeedback struct{}

func (nopFeedback) Print(int, string) {}
func (nopFeedback) Rumble(string)     {}

// Config holds the collaborators of a Session.
type Config struct {
	Actuators robot.Actuators     // required
	Heading   robot.HeadingSensor // required
	Gamepad   Gamepad             // required for recording
	Feedback  Feedback
	Store     Store
	Clock     clock.Clock
	Gain      float64
	Logf      func(format string, args ...any)
}

// Session owns one recording log and the record/playback state machine.
//
// Recording and playback are driven from a single goroutine (the control
// loop). Queries such as Status and Frames are safe from any goroutine.
type Session struct {
	act   robot.Actuators
	imu   robot.HeadingSensor
	pad   Gamepad
	fb    Feedback
	store Store
	clock clock.Clock
	logf  func(format string, args ...any)

	mu          sync.RWMutex
	state       State
	frames      []Frame
	recordStart time.Time
	gain        float64
	full        bool
}

// NewSession creates an idle session with an empty log.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Actuators == nil {
		return nil, errors.New("actuators required")
	}
	if cfg.Heading == nil {
		return nil, errors.New("heading sensor required")
	}

	s := &Session{
		act:   cfg.Actuators,
		imu:   cfg.Heading,
		pad:   cfg.Gamepad,
		fb:    cfg.Feedback,
		store: cfg.Store,
		clock: cfg.Clock,
		logf:  cfg.Logf,
		gain:  cfg.Gain,
	}
	if s.fb == nil {
		s.fb = nopFeedback{}
	}
	if s.store == nil {
		s.store = FileStore{Path: DefaultPath}
	}
	if s.clock == nil {
		s.clock = clock.NewRealClock()
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	if s.gain == 0 {
		s.gain = DefaultGain
	}
	return s, nil
}

// StartRecording clears the log, zeroes the heading reference and starts
// recording. It is ignored during playback.
func (s *Session) StartRecording(ctx context.Context) {
	s.mu.Lock()
	if s.state == Playing {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Drift is measured relative to the session start.
	if err := s.imu.SetHeading(ctx, 0); err != nil {
		s.logf("Warning: heading reset failed: %v", err)
	}

	s.mu.Lock()
	s.frames = nil
	s.full = false
	s.recordStart = s.clock.Now()
	s.state = Recording
	s.mu.Unlock()

	s.fb.Print(0, "RECORDING...")
	s.fb.Rumble("-")
}

// RecordFrame samples the gamepad and the heading and appends a frame.
// Outside of Recording it does nothing.
func (s *Session) RecordFrame(ctx context.Context) error {
	if s.State() != Recording || s.pad == nil {
		return nil
	}

	in, err := s.pad.Read(ctx)
	if err != nil {
		return fmt.Errorf("read gamepad: %w", err)
	}
	heading, err := s.imu.Heading(ctx)
	if err != nil {
		return fmt.Errorf("read heading: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return nil
	}
	// Rounding to float32 can carry values just below 360 up to 360.
	h := float32(robot.NormalizeHeading(heading))
	if h >= 360 {
		h = 0
	}
	if len(s.frames) >= MaxFrames {
		if !s.full {
			s.full = true
			s.fb.Print(1, "LOG FULL")
		}
		return nil
	}
	s.frames = append(s.frames, Frame{
		Timestamp:  uint32(s.clock.Since(s.recordStart).Milliseconds()),
		LeftStick:  int8(robot.ClampVelocity(in.Left)),
		RightStick: int8(robot.ClampVelocity(in.Right)),
		Heading:    h,
		Buttons:    in.Buttons & buttonMask,
	})
	return nil
}

// StopRecording returns to Idle and, if persist is set, saves the log.
// It is ignored during playback.
func (s *Session) StopRecording(persist bool) error {
	s.mu.Lock()
	if s.state == Playing {
		s.mu.Unlock()
		return nil
	}
	s.state = Idle
	n := len(s.frames)
	s.mu.Unlock()

	s.fb.Print(0, fmt.Sprintf("STOPPED: %d frames", n))
	s.fb.Rumble(".")

	if !persist {
		return nil
	}
	if err := s.Save(); err != nil {
		s.fb.Print(1, "SAVE FAILED")
		return err
	}
	s.fb.Print(1, "SAVED")
	return nil
}

// ClearRecording empties the log regardless of state.
func (s *Session) ClearRecording() {
	s.mu.Lock()
	s.frames = nil
	s.full = false
	s.mu.Unlock()

	s.fb.Print(0, "RECORDING CLEARED")
}

// Save persists the current log.
func (s *Session) Save() error {
	if err := s.store.Save(s.Frames()); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

// Load replaces the log with the stored recording. When storage cannot be
// opened the log is left as is; a corrupt recording empties it.
func (s *Session) Load() error {
	if s.State() == Recording {
		return ErrBusy
	}
	_, err := s.load()
	return err
}

func (s *Session) load() ([]Frame, error) {
	frames, err := s.store.Load()
	if err != nil {
		if errors.Is(err, ErrTooManyFrames) || errors.Is(err, ErrTruncated) {
			s.mu.Lock()
			s.frames = nil
			s.mu.Unlock()
		}
		return nil, fmt.Errorf("load recording: %w", err)
	}

	s.mu.Lock()
	s.frames = frames
	s.full = false
	s.mu.Unlock()

	s.fb.Print(0, fmt.Sprintf("LOADED: %d frames", len(frames)))
	return frames, nil
}

// State returns the current mode.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// IsRecording reports whether the session is recording.
func (s *Session) IsRecording() bool { return s.State() == Recording }

// IsPlaying reports whether a playback is running.
func (s *Session) IsPlaying() bool { return s.State() == Playing }

// FrameCount returns the number of frames in the log.
func (s *Session) FrameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Duration returns the timestamp of the last frame, or 0 for an empty log.
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.frames) == 0 {
		return 0
	}
	return time.Duration(s.frames[len(s.frames)-1].Timestamp) * time.Millisecond
}

// Frames returns a copy of the log.
func (s *Session) Frames() []Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// CorrectionGain returns the heading-correction gain.
func (s *Session) CorrectionGain() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gain
}

// SetCorrectionGain sets the gain used by the next playback.
func (s *Session) SetCorrectionGain(gain float64) {
	s.mu.Lock()
	s.gain = gain
	s.mu.Unlock()
}
