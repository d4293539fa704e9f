package teleop

import (
	"fmt"
	"sync"
	"time"

	ring "github.com/zfjagann/golang-ring"

	"github.com/gwillem/autonreplay/pkg/clock"
)

// DefaultHistory is the number of console entries kept.
const DefaultHistory = 64

// Entry is one message shown on the console.
type Entry struct {
	At     time.Time
	Line   int
	Text   string
	Rumble bool // Text is a rumble pattern
}

// Console is an operator display with two text lines and a rumble motor.
// It implements replay.Feedback and keeps a bounded history of what it
// showed. It is safe for concurrent use.
type Console struct {
	clock clock.Clock
	logf  func(format string, args ...any)

	mu      sync.Mutex
	lines   [2]string
	history ring.Ring
}

// NewConsole returns a console keeping size entries of history. logf, if
// not nil, receives every message.
func NewConsole(clk clock.Clock, size int, logf func(format string, args ...any)) *Console {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if size <= 0 {
		size = DefaultHistory
	}
	c := &Console{clock: clk, logf: logf}
	c.history.SetCapacity(size)
	return c
}

// Print sets one of the two display lines. Other line numbers are ignored.
func (c *Console) Print(line int, text string) {
	if line < 0 || line >= len(c.lines) {
		return
	}
	c.mu.Lock()
	c.lines[line] = text
	c.history.Enqueue(Entry{At: c.clock.Now(), Line: line, Text: text})
	c.mu.Unlock()

	if c.logf != nil {
		c.logf("%s", text)
	}
}

// Rumble plays a pattern of '-' (long) and '.' (short) pulses.
func (c *Console) Rumble(pattern string) {
	c.mu.Lock()
	c.history.Enqueue(Entry{At: c.clock.Now(), Text: pattern, Rumble: true})
	c.mu.Unlock()
}

// Lines returns the current display lines.
func (c *Console) Lines() [2]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines
}

// History returns the retained entries, oldest first.
func (c *Console) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := c.history.Values()
	out := make([]Entry, 0, len(values))
	for _, v := range values {
		if e, ok := v.(Entry); ok {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns at most n of the newest entries, oldest first.
func (c *Console) Recent(n int) []Entry {
	h := c.History()
	if n >= 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return h
}

func (e Entry) String() string {
	if e.Rumble {
		return fmt.Sprintf("%s ~ rumble %s", e.At.Format("15:04:05.000"), e.Text)
	}
	return fmt.Sprintf("%s %d %s", e.At.Format("15:04:05.000"), e.Line, e.Text)
}
