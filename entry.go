package instancechart

import "net"

// Entry is what the chart remembers about one peer: the address its last
// announcement arrived from and the payload it carried.
type Entry[T Payload] struct {
	Addr    net.IP
	Payload T
}

// IDEntry pairs a peer id with its entry. The *Vec accessors flatten the
// chart's map into a slice, which would otherwise lose the id each Entry
// belongs to.
type IDEntry[T Payload] struct {
	ID Id
	Entry[T]
}
