package instancechart

import (
	"encoding"
	"encoding/binary"
	"fmt"
)

// Payload is the contract a chart's announced value must satisfy. The
// binary layout is entirely up to the implementation; instancechart treats
// the encoded bytes as opaque beyond the fixed envelope it wraps them in.
type Payload interface {
	encoding.BinaryMarshaler
}

// ServicePort is the payload kind used by PortChart: a single TCP/UDP port
// that the local service is listening on.
type ServicePort uint16

// MarshalBinary implements Payload.
func (p ServicePort) MarshalBinary() ([]byte, error) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(p))
	return b, nil
}

func decodeServicePort(b []byte) (ServicePort, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("instancechart: service port payload must be 2 bytes, got %d", len(b))
	}
	return ServicePort(binary.BigEndian.Uint16(b)), nil
}

// ServicePorts is the payload kind used by PortsChart: a fixed-length list
// of service ports, one per logical service the local instance exposes. All
// instances sharing a chart are expected to announce the same number of
// ports; NthAddrVec indexes into this slice.
type ServicePorts []uint16

// MarshalBinary implements Payload.
func (p ServicePorts) MarshalBinary() ([]byte, error) {
	b := make([]byte, 2*len(p))
	for i, port := range p {
		binary.BigEndian.PutUint16(b[i*2:], port)
	}
	return b, nil
}

func decodeServicePorts(n int) func([]byte) (ServicePorts, error) {
	return func(b []byte) (ServicePorts, error) {
		if len(b) != 2*n {
			return nil, fmt.Errorf("instancechart: service ports payload must be %d bytes, got %d", 2*n, len(b))
		}
		ports := make(ServicePorts, n)
		for i := range ports {
			ports[i] = binary.BigEndian.Uint16(b[i*2:])
		}
		return ports, nil
	}
}
