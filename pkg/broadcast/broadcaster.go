package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Broadcaster holds the single current frame and the live set of subscribers.
// Publishing never blocks on a slow consumer: each subscriber owns a bounded
// delivery slot and stale frames are overwritten rather than queued.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber // subscriberId -> subscriber
	current     *Frame
	sequence    uint64
	published   uint64
	closed      bool
}

// NewBroadcaster creates a new frame broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]*Subscriber),
	}
}

// Publish stores data as the current frame and offers it to every active
// subscriber. The whole call runs in O(active subscribers) with no blocking
// operations inside, so the producer returns promptly regardless of
// subscriber count or network speed. Returns the published frame.
func (b *Broadcaster) Publish(data []byte) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Frame{}
	}

	b.sequence++
	b.published++
	frame := Frame{
		Sequence:  b.sequence,
		Timestamp: time.Now(),
		Data:      data,
	}
	b.current = &frame

	for _, sub := range b.subscribers {
		sub.offer(frame)
	}

	return frame
}

// Subscribe creates and registers a new subscriber. If a frame has already
// been published it is offered immediately, so new clients don't wait for the
// next capture tick.
func (b *Broadcaster) Subscribe() (*Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBroadcasterClosed
	}

	sub := newSubscriber(uuid.NewString())
	if b.current != nil {
		sub.offer(*b.current)
	}
	b.subscribers[sub.id] = sub

	slog.Debug("Subscriber registered", "subscriberId", sub.id, "subscriberCount", len(b.subscribers))

	return sub, nil
}

// Unsubscribe removes a subscriber and wakes any blocked receive. Idempotent.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscribers[id]
	if !exists {
		return
	}

	sub.close()
	delete(b.subscribers, id)

	slog.Debug("Subscriber removed", "subscriberId", id, "subscriberCount", len(b.subscribers))
}

// Current returns the most recently published frame, if any. It never blocks
// on the producer and is safe to call under streaming load.
func (b *Broadcaster) Current() (Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.current == nil {
		return Frame{}, false
	}
	return *b.current, true
}

// HasFrame reports whether any frame has been published yet.
func (b *Broadcaster) HasFrame() bool {
	_, ok := b.Current()
	return ok
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Published returns the total number of frames published so far.
func (b *Broadcaster) Published() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published
}

// Stats returns the delivery counters of one subscriber.
func (b *Broadcaster) Stats(id string) (SubscriberStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, exists := b.subscribers[id]
	if !exists {
		return SubscriberStats{}, ErrSubscriberNotFound
	}
	return sub.Stats(), nil
}

// Subscribers returns the ids of all active subscribers.
func (b *Broadcaster) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	return ids
}

// Close shuts down the broadcaster and wakes every subscriber. Further
// publishes are ignored and further subscribes fail.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, id)
	}

	slog.Info("Broadcaster closed")
}
