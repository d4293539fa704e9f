package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	// MaxFrames bounds a recording: five minutes at the 20 ms sampling period.
	MaxFrames = 15000
	// DefaultPath is the recording file on the robot's removable storage.
	DefaultPath = "/usd/auton_recording.bin"
)

// Store persists a whole recording.
type Store interface {
	Save(frames []Frame) error
	Load() ([]Frame, error)
}

// FileStore keeps the recording in a single file: a uint32 frame count
// followed by that many FrameSize records.
type FileStore struct {
	Path string
}

// Save writes the recording. A failure after the file was created leaves a
// partial file behind; Load rejects it as truncated.
func (s FileStore) Save(frames []Frame) error {
	if len(frames) > MaxFrames {
		return fmt.Errorf("save %d frames: %w", len(frames), ErrTooManyFrames)
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, frames); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write recording: %w", err)
	}
	return f.Close()
}

// Load reads the recording. It never returns a partially populated log.
func (s FileStore) Load() ([]Frame, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// Encode writes the count-prefixed recording to w.
func Encode(w io.Writer, frames []Frame) error {
	if len(frames) > MaxFrames {
		return fmt.Errorf("encode %d frames: %w", len(frames), ErrTooManyFrames)
	}
	buf := make([]byte, 0, 4+FrameSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(frames)))
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame count: %w", err)
	}
	for i, f := range frames {
		buf, _ = f.AppendBinary(buf[:0])
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads a count-prefixed recording. The count is checked against
// MaxFrames before any frame is read.
func Decode(r io.Reader) ([]Frame, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read frame count: %w", ErrTruncated)
	}
	count := binary.LittleEndian.Uint32(hdr[:])
	if count > MaxFrames {
		return nil, fmt.Errorf("%d frames: %w", count, ErrTooManyFrames)
	}

	frames := make([]Frame, count)
	var rec [FrameSize]byte
	for i := range frames {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("read frame %d of %d: %w", i, count, ErrTruncated)
		}
		if err := frames[i].UnmarshalBinary(rec[:]); err != nil {
			return nil, err
		}
	}
	return frames, nil
}
