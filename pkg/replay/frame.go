// Package replay records driver input frames and plays them back with
// heading drift correction.
package replay

import (
	"encoding/binary"
	"errors"
	"math"
)

// FrameSize is the encoded size of one frame:
//
//	[0:4)   uint32  timestamp ms, little-endian
//	[4]     int8    left stick
//	[5]     int8    right stick
//	[6:10)  float32 heading degrees, little-endian
//	[10]    uint8   button mask
//	[11]    pad, always zero
//
// There is no version field. Changing this layout breaks every stored recording.
const FrameSize = 12

var (
	ErrTruncated     = errors.New("truncated recording")
	ErrTooManyFrames = errors.New("frame count exceeds limit")
	ErrNoRecording   = errors.New("no recording")
	ErrBusy          = errors.New("session busy")
)

// Button is the bit position of a tracked control in the button mask.
type Button uint8

// Bit order is part of the stored format.
const (
	ButtonR1 Button = iota // intake forward
	ButtonR2               // intake reverse
	ButtonL1               // outtake forward
	ButtonL2               // outtake reverse
	ButtonX                // mid-scoring
	ButtonA                // descore
	ButtonB                // unloader

	buttonCount = 7
)

var buttonNames = [buttonCount]string{"R1", "R2", "L1", "L2", "X", "A", "B"}

func (b Button) String() string {
	if b < buttonCount {
		return buttonNames[b]
	}
	return "?"
}

// AllButtons returns the tracked buttons in bit order.
func AllButtons() []Button {
	return []Button{ButtonR1, ButtonR2, ButtonL1, ButtonL2, ButtonX, ButtonA, ButtonB}
}

// Buttons is a packed mask of pressed buttons.
type Buttons uint8

const buttonMask Buttons = 1<<buttonCount - 1

// PackButtons returns the mask with the given buttons set.
func PackButtons(pressed ...Button) Buttons {
	var b Buttons
	for _, p := range pressed {
		b |= 1 << p
	}
	return b & buttonMask
}

// Has reports whether btn is pressed.
func (b Buttons) Has(btn Button) bool {
	return b&(1<<btn) != 0
}

// Rising returns the buttons pressed in b but not in prev.
func (b Buttons) Rising(prev Buttons) Buttons {
	return b &^ prev & buttonMask
}

func (b Buttons) String() string {
	out := make([]byte, 0, 2*buttonCount)
	for _, btn := range AllButtons() {
		if b.Has(btn) {
			if len(out) > 0 {
				out = append(out, ' ')
			}
			out = append(out, btn.String()...)
		}
	}
	return string(out)
}

// Frame is one sampled instant of driver intent.
type Frame struct {
	Timestamp  uint32 // ms since recording start
	LeftStick  int8
	RightStick int8
	Heading    float32 // degrees, [0, 360)
	Buttons    Buttons
}

// AppendBinary appends the encoded frame to b.
func (f Frame) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, f.Timestamp)
	b = append(b, byte(f.LeftStick), byte(f.RightStick))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f.Heading))
	b = append(b, byte(f.Buttons), 0)
	return b, nil
}

// MarshalBinary encodes the frame into FrameSize bytes.
func (f Frame) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, FrameSize))
}

// UnmarshalBinary decodes the first FrameSize bytes of data.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < FrameSize {
		return ErrTruncated
	}
	f.Timestamp = binary.LittleEndian.Uint32(data[0:4])
	f.LeftStick = int8(data[4])
	f.RightStick = int8(data[5])
	f.Heading = math.Float32frombits(binary.LittleEndian.Uint32(data[6:10]))
	f.Buttons = Buttons(data[10])
	return nil
}
