package sim

import (
	"context"
	"sync"

	"github.com/gwillem/autonreplay/pkg/replay"
)

// Gamepad is a gamepad whose state is set by the caller.
type Gamepad struct {
	mu    sync.Mutex
	input replay.Input
}

// Set replaces the current input.
func (g *Gamepad) Set(in replay.Input) {
	g.mu.Lock()
	g.input = in
	g.mu.Unlock()
}

// Read implements replay.Gamepad.
func (g *Gamepad) Read(ctx context.Context) (replay.Input, error) {
	if err := ctx.Err(); err != nil {
		return replay.Input{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.input, nil
}
