package replay

import (
	"fmt"
	"time"
)

// Status is a read-only snapshot for the operator display.
type Status struct {
	State    State
	Frames   int
	Duration time.Duration
}

// Label renders the status indicator: "REC", "PLAY", "<n> frm" or "".
func (s Status) Label() string {
	switch {
	case s.State == Recording:
		return "REC"
	case s.State == Playing:
		return "PLAY"
	case s.Frames > 0:
		return fmt.Sprintf("%d frm", s.Frames)
	default:
		return ""
	}
}

func (s Status) String() string {
	return s.Label()
}

// Status returns the current mode and log size.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		State:  s.state,
		Frames: len(s.frames),
	}
	if n := len(s.frames); n > 0 {
		st.Duration = time.Duration(s.frames[n-1].Timestamp) * time.Millisecond
	}
	return st
}
