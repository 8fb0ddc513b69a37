package broadcast

import "time"

// Frame represents a single encoded camera image.
// Once published a frame is never mutated; a newer frame fully supersedes it.
type Frame struct {
	Sequence  uint64    // Monotonic sequence number, assigned by the broadcaster
	Timestamp time.Time // Capture/publish time
	Data      []byte    // Encoded JPEG bytes (read-only after publish)
}

// Size returns the encoded payload length in bytes.
func (f Frame) Size() int {
	return len(f.Data)
}
