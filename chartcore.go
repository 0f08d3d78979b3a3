package instancechart

import (
	"net"
	"sync"
	"time"
)

// chart is the unexported generic core shared by PortChart, PortsChart and
// MsgChart[T]. It owns the socket, the peer map and the broadcast hub; the
// exported wrapper types add the type-specific accessor methods spec for
// each payload kind.
type chart[T Payload] struct {
	header   uint64
	id       Id
	ourMsg   T
	decode   func([]byte) (T, error)
	discPort int

	conn *net.UDPConn

	mu      sync.Mutex
	entries map[Id]Entry[T]

	interval *Interval
	hub      *hub[T]
}

func newChart[T Payload](header uint64, id Id, msg T, decode func([]byte) (T, error), conn *net.UDPConn, discPort int) *chart[T] {
	return &chart[T]{
		header:   header,
		id:       id,
		ourMsg:   msg,
		decode:   decode,
		discPort: discPort,
		conn:     conn,
		entries:  make(map[Id]Entry[T]),
		interval: newInterval(DefaultMinInterval, DefaultMaxInterval, DefaultRampdown, time.Now()),
		hub:      newHub[T](256),
	}
}

// insert records a received announcement, returning true if this is the
// first time we have heard from this id (the condition under which the
// chart fires a notification to subscribers).
func (c *chart[T]) insert(id Id, addr net.IP, payload T) bool {
	c.mu.Lock()
	_, existed := c.entries[id]
	c.entries[id] = Entry[T]{Addr: addr, Payload: payload}
	c.mu.Unlock()

	if !existed {
		c.hub.publish(id, Entry[T]{Addr: addr, Payload: payload})
	}
	return !existed
}

// forget removes an id from the chart. Unlike Get*, forgetting our own id
// is a no-op: it was never in the map to begin with.
func (c *chart[T]) forget(id Id) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// size returns the number of peers plus ourselves.
func (c *chart[T]) size() int {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return n + 1
}

// snapshot copies the current peer map out from under the lock so callers
// can iterate without holding it.
func (c *chart[T]) snapshot() map[Id]Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Id]Entry[T], len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

func (c *chart[T]) get(id Id) (Entry[T], bool) {
	if id == c.id {
		panic("instancechart: Get called with the chart's own id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

func (c *chart[T]) ourID() Id { return c.id }

func (c *chart[T]) ourPayload() T { return c.ourMsg }

func (c *chart[T]) discoveryPort() int { return c.discPort }

// discoveryBuf encodes the envelope this instance broadcasts: its own
// header, id and payload.
func (c *chart[T]) discoveryBuf() []byte {
	payload, err := c.ourMsg.MarshalBinary()
	if err != nil {
		panic("instancechart: marshal own payload: " + err.Error())
	}
	return encodeEnvelope(c.header, c.id, payload)
}

// broadcastSoon reports whether the next scheduled broadcast is due within
// the reactive-reply guard window, so the receiver loop can skip sending an
// immediate unicast reply to a newly discovered peer when a multicast
// broadcast carrying the same information is about to go out anyway.
func (c *chart[T]) broadcastSoon(now time.Time, guard time.Duration) bool {
	return c.interval.Until(now) < guard
}

// process decodes a received datagram and applies it to the chart if it
// belongs to this deployment (matching header) and did not originate from
// us. Returns the sender id and whether this was a first-time discovery,
// so the receiver loop knows whether to send a reactive reply.
func (c *chart[T]) process(buf []byte, from net.IP) (id Id, firstSeen bool, ok bool) {
	header, senderID, payloadBytes, good := decodeEnvelope(buf)
	if !good || header != c.header || senderID == c.id {
		return 0, false, false
	}
	payload, err := c.decode(payloadBytes)
	if err != nil {
		return 0, false, false
	}
	first := c.insert(senderID, from, payload)
	return senderID, first, true
}
