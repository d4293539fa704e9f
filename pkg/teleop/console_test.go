package teleop

import (
	"fmt"
	"testing"
	"time"

	"github.com/gwillem/autonreplay/pkg/clock"
)

func TestConsole_Lines(t *testing.T) {
	c := NewConsole(clock.NewVirtualClock(time.Unix(0, 0)), 4, nil)
	c.Print(0, "RECORDING...")
	c.Print(1, "SAVED")
	c.Print(2, "ignored")
	c.Print(-1, "ignored")

	if got := c.Lines(); got != [2]string{"RECORDING...", "SAVED"} {
		t.Errorf("Lines() = %q", got)
	}
	if n := len(c.History()); n != 2 {
		t.Errorf("history has %d entries, want 2", n)
	}
}

func TestConsole_HistoryBounded(t *testing.T) {
	vc := clock.NewVirtualClock(time.Unix(0, 0))
	c := NewConsole(vc, 3, nil)
	for i := 0; i < 5; i++ {
		vc.Advance(time.Second)
		c.Print(0, fmt.Sprintf("msg %d", i))
	}
	c.Rumble(".")

	h := c.History()
	if len(h) != 3 {
		t.Fatalf("history has %d entries, want 3", len(h))
	}
	if h[0].Text != "msg 3" || h[1].Text != "msg 4" {
		t.Errorf("history = %+v", h)
	}
	if !h[2].Rumble || h[2].Text != "." {
		t.Errorf("last entry = %+v", h[2])
	}
	if !h[0].At.Equal(time.Unix(4, 0)) {
		t.Errorf("first entry at %v, want %v", h[0].At, time.Unix(4, 0))
	}
}

func TestConsole_Recent(t *testing.T) {
	c := NewConsole(clock.NewVirtualClock(time.Unix(0, 0)), 8, nil)
	c.Print(0, "RECORDING...")
	c.Rumble("-")
	c.Print(0, "STOPPED: 2 frames")

	recent := c.Recent(2)
	if len(recent) != 2 || !recent[0].Rumble || recent[1].Text != "STOPPED: 2 frames" {
		t.Errorf("Recent(2) = %+v", recent)
	}
	if n := len(c.Recent(10)); n != 3 {
		t.Errorf("Recent(10) returned %d entries, want 3", n)
	}
}

func TestEntry_String(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 5, 250*int(time.Millisecond), time.UTC)
	tests := []struct {
		e    Entry
		want string
	}{
		{Entry{At: at, Line: 1, Text: "SAVED"}, "09:30:05.250 1 SAVED"},
		{Entry{At: at, Text: "-", Rumble: true}, "09:30:05.250 ~ rumble -"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestConsole_Logf(t *testing.T) {
	var got []string
	c := NewConsole(nil, 0, func(format string, args ...any) {
		got = append(got, fmt.Sprintf(format, args...))
	})
	c.Print(0, "LOADED: 3 frames")
	c.Rumble("-")
	if len(got) != 1 || got[0] != "LOADED: 3 frames" {
		t.Errorf("logged %q", got)
	}
}
