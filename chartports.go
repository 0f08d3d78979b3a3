package instancechart

import (
	"fmt"
	"net"
)

// PortsChart is a chart whose payload is a fixed-length list of announced
// service ports — one instance exposing several services (e.g. a control
// port and a data port) under one discovery identity.
type PortsChart struct {
	core *chart[ServicePorts]
}

// OurServicePorts returns the ports this instance announces.
func (c *PortsChart) OurServicePorts() ServicePorts { return c.core.ourPayload() }

// OurID returns this instance's own id.
func (c *PortsChart) OurID() Id { return c.core.ourID() }

// DiscoveryPort returns the UDP port used for discovery traffic.
func (c *PortsChart) DiscoveryPort() int { return c.core.discoveryPort() }

// Size returns the number of known peers plus ourselves.
func (c *PortsChart) Size() int { return c.core.size() }

// Forget removes an id from the chart.
func (c *PortsChart) Forget(id Id) { c.core.forget(id) }

// GetAddrList returns the (address, ports) pair last announced by id.
// Panics if id is this chart's own id.
func (c *PortsChart) GetAddrList(id Id) (net.IP, ServicePorts, bool) {
	e, ok := c.core.get(id)
	return e.Addr, e.Payload, ok
}

// GetNthAddr returns (address, nth port) for id, where n indexes into the
// announced port list. Returns an error if n is out of range for the
// entry's payload — Go has no const generics to check this at compile
// time, so the check is runtime.
func (c *PortsChart) GetNthAddr(id Id, n int) (net.IP, uint16, error) {
	e, ok := c.core.get(id)
	if !ok {
		return nil, 0, fmt.Errorf("instancechart: no entry for id %d", id)
	}
	if n < 0 || n >= len(e.Payload) {
		return nil, 0, fmt.Errorf("instancechart: index %d out of range for %d ports", n, len(e.Payload))
	}
	return e.Addr, e.Payload[n], nil
}

// AddrListsVec returns a snapshot of every known peer's id and (address,
// ports) pair.
func (c *PortsChart) AddrListsVec() []IDEntry[ServicePorts] {
	snap := c.core.snapshot()
	out := make([]IDEntry[ServicePorts], 0, len(snap))
	for id, e := range snap {
		out = append(out, IDEntry[ServicePorts]{ID: id, Entry: e})
	}
	return out
}

// NthAddrVec returns a snapshot of (id, address, nth port) for every known
// peer whose announced port list is long enough to have an index n. Peers
// with shorter lists are silently skipped.
func (c *PortsChart) NthAddrVec(n int) []IDEntry[ServicePort] {
	snap := c.core.snapshot()
	out := make([]IDEntry[ServicePort], 0, len(snap))
	for id, e := range snap {
		if n >= 0 && n < len(e.Payload) {
			out = append(out, IDEntry[ServicePort]{
				ID:    id,
				Entry: Entry[ServicePort]{Addr: e.Addr, Payload: ServicePort(e.Payload[n])},
			})
		}
	}
	return out
}

// Notify subscribes to first-time peer sightings on this chart.
func (c *PortsChart) Notify() *NotifyPorts { return &NotifyPorts{Notify: newNotify(c.core.hub)} }

// NotifyPorts is a Notify subscription specialized for PortsChart, adding
// projections to announced addresses.
type NotifyPorts struct {
	*Notify[ServicePorts]
}

// RecvAddresses blocks until the next first-time peer sighting, returning
// its id, address and full announced port list.
func (n *NotifyPorts) RecvAddresses() (Id, net.IP, ServicePorts, error) {
	id, e, err := n.Recv()
	return id, e.Addr, e.Payload, err
}

// RecvNthAddr blocks until the next first-time peer sighting, returning
// its id, address and nth announced port. Returns an error if the sighted
// peer's port list is too short for index n.
func (n *NotifyPorts) RecvNthAddr(idx int) (Id, net.IP, uint16, error) {
	id, e, err := n.Recv()
	if err != nil {
		return 0, nil, 0, err
	}
	if idx < 0 || idx >= len(e.Payload) {
		return 0, nil, 0, fmt.Errorf("instancechart: index %d out of range for %d ports", idx, len(e.Payload))
	}
	return id, e.Addr, e.Payload[idx], nil
}
