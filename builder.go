package instancechart

import (
	"fmt"
	"time"
)

// DefaultHeader scopes a deployment: two charts only discover each other if
// their headers match. Chosen to be astronomically unlikely to collide with
// an unrelated deployment that forgot to set its own.
const DefaultHeader uint64 = 6_687_164_552_036_412_667

// DefaultDiscoveryPort is the UDP port discovery traffic uses when a
// Builder does not override it.
const DefaultDiscoveryPort = 8080

// ChartBuilder assembles a chart. Unlike a compile-time builder that tracks
// which fields are set in its type, this one validates at Build time and
// returns an error — simpler to use from Go and just as safe, since the
// failure modes here are all caller mistakes caught once at startup.
type ChartBuilder struct {
	id             Id
	idSet          bool
	header         uint64
	discoveryPort  int
	localDiscovery bool
	min, max, rampdown time.Duration
}

// NewBuilder starts a ChartBuilder with protocol defaults applied.
func NewBuilder() *ChartBuilder {
	return &ChartBuilder{
		header:        DefaultHeader,
		discoveryPort: DefaultDiscoveryPort,
		min:           DefaultMinInterval,
		max:           DefaultMaxInterval,
		rampdown:      DefaultRampdown,
	}
}

// WithID sets this instance's id. Required.
func (b *ChartBuilder) WithID(id Id) *ChartBuilder {
	b.id = id
	b.idSet = true
	return b
}

// WithRandomID assigns a random id via RandomId.
func (b *ChartBuilder) WithRandomID() *ChartBuilder {
	return b.WithID(RandomId())
}

// WithHeader overrides the default deployment header.
func (b *ChartBuilder) WithHeader(header uint64) *ChartBuilder {
	b.header = header
	return b
}

// WithDiscoveryPort overrides the default discovery port.
func (b *ChartBuilder) WithDiscoveryPort(port int) *ChartBuilder {
	b.discoveryPort = port
	return b
}

// WithLocalDiscovery enables SO_REUSEPORT so multiple instances can share
// one discovery port on the same host. Intended for tests and for tools
// like cmd/checkports that run several instances locally.
func (b *ChartBuilder) WithLocalDiscovery(enabled bool) *ChartBuilder {
	b.localDiscovery = enabled
	return b
}

// WithRampdown overrides the broadcast interval schedule. Panics if
// min > max, which can only be a programmer error in how the builder is
// called.
func (b *ChartBuilder) WithRampdown(min, max, rampdown time.Duration) *ChartBuilder {
	if min > max {
		panic("instancechart: WithRampdown requires min <= max")
	}
	b.min, b.max, b.rampdown = min, max, rampdown
	return b
}

func (b *ChartBuilder) validate() error {
	if !b.idSet {
		return fmt.Errorf("instancechart: builder has no id, call WithID or WithRandomID")
	}
	if b.discoveryPort <= 0 || b.discoveryPort > 65535 {
		return fmt.Errorf("instancechart: invalid discovery port %d", b.discoveryPort)
	}
	return nil
}

// BuildPort opens the socket and returns a PortChart announcing ourPort.
func (b *ChartBuilder) BuildPort(ourPort ServicePort) (*PortChart, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if err := checkPayloadSize(ourPort); err != nil {
		return nil, err
	}
	conn, err := openSocket(socketOptions{DiscoveryPort: b.discoveryPort, LocalDiscovery: b.localDiscovery})
	if err != nil {
		return nil, err
	}
	core := newChart[ServicePort](b.header, b.id, ourPort, decodeServicePort, conn, b.discoveryPort)
	core.interval = newInterval(b.min, b.max, b.rampdown, time.Now())
	return &PortChart{core: core}, nil
}

// BuildPorts opens the socket and returns a PortsChart announcing
// ourPorts. Peer announcements carrying a different number of ports than
// ourPorts fail to decode and are dropped, so only peers announcing the
// same number of ports are charted.
func (b *ChartBuilder) BuildPorts(ourPorts ServicePorts) (*PortsChart, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if err := checkPayloadSize(ourPorts); err != nil {
		return nil, err
	}
	conn, err := openSocket(socketOptions{DiscoveryPort: b.discoveryPort, LocalDiscovery: b.localDiscovery})
	if err != nil {
		return nil, err
	}
	core := newChart[ServicePorts](b.header, b.id, ourPorts, decodeServicePorts(len(ourPorts)), conn, b.discoveryPort)
	core.interval = newInterval(b.min, b.max, b.rampdown, time.Now())
	return &PortsChart{core: core}, nil
}

// BuildMsg opens the socket and returns a MsgChart[T] announcing ourMsg,
// decoding peer payloads with decode.
func BuildMsg[T Payload](b *ChartBuilder, ourMsg T, decode func([]byte) (T, error)) (*MsgChart[T], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if err := checkPayloadSize(ourMsg); err != nil {
		return nil, err
	}
	conn, err := openSocket(socketOptions{DiscoveryPort: b.discoveryPort, LocalDiscovery: b.localDiscovery})
	if err != nil {
		return nil, err
	}
	core := newChart[T](b.header, b.id, ourMsg, decode, conn, b.discoveryPort)
	core.interval = newInterval(b.min, b.max, b.rampdown, time.Now())
	return &MsgChart[T]{core: core}, nil
}
