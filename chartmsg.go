package instancechart

import "net"

// MsgChart is a chart whose payload is an arbitrary caller-defined type,
// for deployments that want to piggyback more than a port list on
// discovery (a protocol version, a shard assignment, a short status
// string).
type MsgChart[T Payload] struct {
	core *chart[T]
}

// OurMsg returns the payload this instance announces.
func (c *MsgChart[T]) OurMsg() T { return c.core.ourPayload() }

// OurID returns this instance's own id.
func (c *MsgChart[T]) OurID() Id { return c.core.ourID() }

// DiscoveryPort returns the UDP port used for discovery traffic.
func (c *MsgChart[T]) DiscoveryPort() int { return c.core.discoveryPort() }

// Size returns the number of known peers plus ourselves.
func (c *MsgChart[T]) Size() int { return c.core.size() }

// Forget removes an id from the chart.
func (c *MsgChart[T]) Forget(id Id) { c.core.forget(id) }

// Get returns the (address, payload) pair last announced by id. Panics if
// id is this chart's own id.
func (c *MsgChart[T]) Get(id Id) (net.IP, T, bool) {
	e, ok := c.core.get(id)
	return e.Addr, e.Payload, ok
}

// EntriesVec returns a snapshot of every known peer's (address, payload)
// pair.
func (c *MsgChart[T]) EntriesVec() []Entry[T] {
	snap := c.core.snapshot()
	out := make([]Entry[T], 0, len(snap))
	for _, e := range snap {
		out = append(out, e)
	}
	return out
}

// Notify subscribes to first-time peer sightings on this chart.
func (c *MsgChart[T]) Notify() *Notify[T] { return newNotify(c.core.hub) }
