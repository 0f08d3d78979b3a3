package instancechart

import "sync"

// notifyBufferSize bounds how many not-yet-delivered first-sightings a slow
// subscriber can fall behind by before it starts missing entries.
const notifyBufferSize = 256

// event is one first-sighting delivered to subscribers.
type event[T Payload] struct {
	id    Id
	entry Entry[T]
}

// hub is a minimal multi-consumer broadcast channel, standing in for
// Go's lack of anything like tokio::sync::broadcast: every subscriber gets
// its own buffered channel fed by publish; a subscriber that cannot keep up
// has its oldest entries dropped and learns about it as a LaggedError the
// next time it reads.
type hub[T Payload] struct {
	mu   sync.Mutex
	subs map[*subscription[T]]struct{}
}

type subscription[T Payload] struct {
	ch      chan event[T]
	dropped int
	mu      sync.Mutex
}

func newHub[T Payload](_ int) *hub[T] {
	return &hub[T]{subs: make(map[*subscription[T]]struct{})}
}

func (h *hub[T]) subscribe() *subscription[T] {
	sub := &subscription[T]{ch: make(chan event[T], notifyBufferSize)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub[T]) unsubscribe(sub *subscription[T]) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

func (h *hub[T]) publish(id Id, entry Entry[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- event[T]{id: id, entry: entry}:
		default:
			// Ring buffer full: drop the oldest pending event to make room,
			// mirroring broadcast channel lag semantics instead of blocking
			// the publisher on a slow subscriber.
			select {
			case <-sub.ch:
				sub.mu.Lock()
				sub.dropped++
				sub.mu.Unlock()
			default:
			}
			select {
			case sub.ch <- event[T]{id: id, entry: entry}:
			default:
			}
		}
	}
}

// recv blocks until the next first-sighting, or returns a LaggedError if
// entries were dropped since the last call. The subscription remains valid
// after a lag error.
func (s *subscription[T]) recv() (Id, Entry[T], error) {
	s.mu.Lock()
	if s.dropped > 0 {
		n := s.dropped
		s.dropped = 0
		s.mu.Unlock()
		return 0, Entry[T]{}, &LaggedError{Skipped: n}
	}
	s.mu.Unlock()

	ev := <-s.ch
	return ev.id, ev.entry, nil
}

// Notify is a subscription to a chart's stream of first-time peer
// sightings. Obtained from a chart wrapper's Notify method.
type Notify[T Payload] struct {
	hub *hub[T]
	sub *subscription[T]
}

func newNotify[T Payload](h *hub[T]) *Notify[T] {
	return &Notify[T]{hub: h, sub: h.subscribe()}
}

// Recv blocks until the next first-time peer sighting arrives, or returns a
// LaggedError if this subscriber fell behind.
func (n *Notify[T]) Recv() (Id, Entry[T], error) {
	return n.sub.recv()
}

// Close releases the subscription. Subsequent publishes are no longer
// delivered to it.
func (n *Notify[T]) Close() {
	n.hub.unsubscribe(n.sub)
}
