package instancechart

import "net"

// PortChart is a chart whose payload is a single announced service port —
// the common case of "find the other processes and the port each is
// listening on."
type PortChart struct {
	core *chart[ServicePort]
}

// OurServicePort returns the port this instance announces to its peers.
func (c *PortChart) OurServicePort() ServicePort { return c.core.ourPayload() }

// OurID returns this instance's own id.
func (c *PortChart) OurID() Id { return c.core.ourID() }

// DiscoveryPort returns the UDP port used for discovery traffic.
func (c *PortChart) DiscoveryPort() int { return c.core.discoveryPort() }

// Size returns the number of known peers plus ourselves.
func (c *PortChart) Size() int { return c.core.size() }

// Forget removes an id from the chart, e.g. after the caller independently
// determines the peer is gone.
func (c *PortChart) Forget(id Id) { c.core.forget(id) }

// GetAddr returns the (address, port) pair last announced by id. Panics if
// id is this chart's own id — ask OurServicePort for that instead.
func (c *PortChart) GetAddr(id Id) (net.IP, ServicePort, bool) {
	e, ok := c.core.get(id)
	return e.Addr, e.Payload, ok
}

// AddrVec returns a snapshot of every known peer's id and (address, port)
// pair.
func (c *PortChart) AddrVec() []IDEntry[ServicePort] {
	snap := c.core.snapshot()
	out := make([]IDEntry[ServicePort], 0, len(snap))
	for id, e := range snap {
		out = append(out, IDEntry[ServicePort]{ID: id, Entry: e})
	}
	return out
}

// Notify subscribes to first-time peer sightings on this chart.
func (c *PortChart) Notify() *NotifyPort { return &NotifyPort{Notify: newNotify(c.core.hub)} }

// NotifyPort is a Notify subscription specialized for PortChart, adding a
// projection straight to the announced address.
type NotifyPort struct {
	*Notify[ServicePort]
}

// RecvAddr blocks until the next first-time peer sighting, returning its
// id, address and announced port.
func (n *NotifyPort) RecvAddr() (Id, net.IP, ServicePort, error) {
	id, e, err := n.Recv()
	return id, e.Addr, e.Payload, err
}
