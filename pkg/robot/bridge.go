package robot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate      = 115200
	DefaultBridgeTimeout = 200 * time.Millisecond
)

// ErrNotConnected is returned by operations on a closed bridge.
var ErrNotConnected = errors.New("bridge not connected")

// Bridge is the serial link to the microcontroller that owns the motor
// drivers and the IMU. The protocol is line based:
//
//	-> hello          <- ready
//	-> m <ch> <val>   (no reply, val in [-255, 255])
//	-> h              <- <yaw degrees>
type Bridge struct {
	mu       sync.Mutex
	port     io.ReadWriteCloser
	r        *bufio.Reader
	w        *bufio.Writer
	motcache map[int]int
}

// OpenBridge opens the serial port and performs the handshake.
func OpenBridge(cfg BridgeConfig) (*Bridge, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port: %w", err)
	}
	if err := port.SetReadTimeout(DefaultBridgeTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	b := NewBridge(port)
	if err := b.Handshake(); err != nil {
		port.Close()
		return nil, fmt.Errorf("handshake on %s: %w", cfg.Port, err)
	}
	return b, nil
}

// ProbeBridge reports whether a bridge answers on the given port.
func ProbeBridge(port string) bool {
	b, err := OpenBridge(BridgeConfig{Port: port})
	if err != nil {
		return false
	}
	b.Close()
	return true
}

// NewBridge wraps an already open link. The caller performs the handshake.
func NewBridge(rw io.ReadWriteCloser) *Bridge {
	return &Bridge{
		port:     rw,
		r:        bufio.NewReader(rw),
		w:        bufio.NewWriter(rw),
		motcache: make(map[int]int),
	}
}

// Handshake greets the microcontroller and waits for its ready line.
func (b *Bridge) Handshake() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ln, err := b.request("hello")
	if err != nil {
		return err
	}
	if ln != "ready" {
		return fmt.Errorf("expected 'ready' but got %q", ln)
	}
	return nil
}

// SetMotor sets a raw motor value on a channel. Unchanged values are not resent.
func (b *Bridge) SetMotor(ctx context.Context, ch, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return ErrNotConnected
	}
	if old, cached := b.motcache[ch]; cached && old == value {
		return nil
	}
	if _, err := fmt.Fprintf(b.w, "m %d %d\n", ch, value); err != nil {
		return fmt.Errorf("write motor %d: %w", ch, err)
	}
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("write motor %d: %w", ch, err)
	}
	b.motcache[ch] = value
	return nil
}

// Yaw reads the raw IMU yaw in degrees.
func (b *Bridge) Yaw(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ln, err := b.request("h")
	if err != nil {
		return 0, err
	}
	yaw, err := strconv.ParseFloat(ln, 64)
	if err != nil {
		return 0, fmt.Errorf("parse yaw %q: %w", ln, err)
	}
	return yaw, nil
}

// Close closes the serial link.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return nil
	}
	err := b.port.Close()
	b.port = nil
	return err
}

// request sends a command line and returns the trimmed reply line.
// Must be called with b.mu held.
func (b *Bridge) request(cmd string) (string, error) {
	if b.port == nil {
		return "", ErrNotConnected
	}
	if _, err := fmt.Fprintln(b.w, cmd); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}
	if err := b.w.Flush(); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}
	ln, err := b.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(ln), nil
}
