package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// SubscriberStats tracks frame delivery metrics for one subscriber
type SubscriberStats struct {
	Enqueued uint64 // Frames placed into the delivery slot
	Dropped  uint64 // Stale frames overwritten before delivery
}

// Subscriber represents one streaming client's registration with the broadcaster.
// Its delivery slot holds at most one undelivered frame; a newer frame replaces
// a stale one (drop-stale-keep-latest).
type Subscriber struct {
	id   string
	slot chan Frame // 용량 1 전달 슬롯
	done chan struct{}

	closeOnce sync.Once

	enqueued atomic.Uint64
	dropped  atomic.Uint64
}

func newSubscriber(id string) *Subscriber {
	return &Subscriber{
		id:   id,
		slot: make(chan Frame, 1),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber id
func (s *Subscriber) ID() string {
	return s.id
}

// Next blocks until a new frame is available, the context is cancelled or the
// subscriber is closed. Frames arrive in strictly increasing sequence order;
// frames may be skipped when the consumer is slower than the capture cadence.
func (s *Subscriber) Next(ctx context.Context) (Frame, error) {
	select {
	case frame := <-s.slot:
		return frame, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-s.done:
		// 종료 직전에 도착한 프레임이 남아있으면 먼저 소비
		select {
		case frame := <-s.slot:
			return frame, nil
		default:
			return Frame{}, ErrSubscriberClosed
		}
	}
}

// TryNext returns a pending frame without blocking.
func (s *Subscriber) TryNext() (Frame, bool) {
	select {
	case frame := <-s.slot:
		return frame, true
	default:
		return Frame{}, false
	}
}

// Stats returns a snapshot of the delivery counters.
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Enqueued: s.enqueued.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// offer places a frame into the delivery slot without blocking. A stale
// undelivered frame is discarded first so the consumer always sees the latest.
// Offers are serialized by the broadcaster's lock; the consumer draining the
// slot concurrently only ever makes room, never contends for the send.
func (s *Subscriber) offer(frame Frame) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.slot <- frame:
	default:
		// 슬롯이 차 있으면 오래된 프레임을 버리고 최신 프레임으로 교체
		select {
		case <-s.slot:
			s.dropped.Add(1)
		default:
		}
		s.slot <- frame
	}
	s.enqueued.Add(1)
}

// close wakes any blocked Next call. Idempotent.
func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
