package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ServoBus is a feetech serial bus shared by servo-actuated mechanisms.
type ServoBus struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
}

// OpenServoBus opens the bus and groups the given servo IDs.
func OpenServoBus(port string, ids ...int) (*ServoBus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	return &ServoBus{
		bus:   bus,
		group: feetech.NewServoGroupByIDs(bus, ids...),
	}, nil
}

// Enable enables torque on all servos.
func (b *ServoBus) Enable(ctx context.Context) error {
	return b.group.EnableAll(ctx)
}

// Close disables torque and closes the bus connection.
func (b *ServoBus) Close() error {
	b.group.DisableAll(context.Background())
	return b.bus.Close()
}

// Mechanism returns a two-state mechanism moving one servo between two
// raw positions.
func (b *ServoBus) Mechanism(id, retracted, extended int) *ServoMechanism {
	return &ServoMechanism{
		bus:       b,
		id:        id,
		retracted: retracted,
		extended:  extended,
	}
}

// ServoMechanism is a flap or latch moved by a bus servo.
type ServoMechanism struct {
	bus       *ServoBus
	id        int
	retracted int
	extended  int
}

// Position returns the raw servo target for a state.
func (m *ServoMechanism) Position(extended bool) int {
	if extended {
		return m.extended
	}
	return m.retracted
}

// Set moves the servo to the extended or retracted position.
func (m *ServoMechanism) Set(ctx context.Context, extended bool) error {
	if err := m.bus.group.SetPositions(ctx, feetech.PositionMap{m.id: m.Position(extended)}); err != nil {
		return fmt.Errorf("write servo %d: %w", m.id, err)
	}
	return nil
}
