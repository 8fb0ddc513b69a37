package source

import (
	"sync"
	"time"

	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
)

// capturePublisher records published frames for test assertions
type capturePublisher struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *capturePublisher) Publish(data []byte) broadcast.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, data)
	return broadcast.Frame{
		Sequence:  uint64(len(c.frames)),
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *capturePublisher) frame(i int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[i]
}

// waitForFrames polls until the publisher has at least n frames
func (c *capturePublisher) waitForFrames(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.count() >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
