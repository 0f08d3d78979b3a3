package instancechart

import (
	"encoding/binary"
	"fmt"
)

// maxMessageSize bounds a discovery datagram: header (8) + id (8) + payload.
// Chosen to stay well under the common 1500-byte Ethernet MTU once IP/UDP
// headers are accounted for.
const maxMessageSize = 1024

const envelopeHeaderLen = 8 + 8 // header uint64 + id uint64

// checkPayloadSize reports an error if payload, once wrapped in the
// envelope, would exceed maxMessageSize. ChartBuilder calls this once at
// Build* time so an oversize payload type is caught at construction
// instead of failing the first time the chart tries to broadcast.
func checkPayloadSize[T Payload](payload T) error {
	b, err := payload.MarshalBinary()
	if err != nil {
		return fmt.Errorf("instancechart: marshal payload: %w", err)
	}
	total := envelopeHeaderLen + len(b)
	if total > maxMessageSize {
		return fmt.Errorf("instancechart: discovery message %d bytes exceeds max %d", total, maxMessageSize)
	}
	return nil
}

// encodeEnvelope lays out header ‖ id ‖ payload big-endian. It panics if the
// resulting message would exceed maxMessageSize. ChartBuilder's
// checkPayloadSize call at construction time means this should be
// unreachable in practice; it stays as a backstop.
func encodeEnvelope(header uint64, id Id, payload []byte) []byte {
	total := envelopeHeaderLen + len(payload)
	if total > maxMessageSize {
		panic(fmt.Sprintf("instancechart: discovery message %d bytes exceeds max %d", total, maxMessageSize))
	}
	buf := make([]byte, total)
	binary.BigEndian.PutUint64(buf[0:8], header)
	binary.BigEndian.PutUint64(buf[8:16], uint64(id))
	copy(buf[16:], payload)
	return buf
}

// decodeEnvelope splits a received datagram back into header, id and the
// raw payload bytes. Malformed or short datagrams return ok=false and are
// meant to be dropped silently by the caller, not logged as errors — stray
// traffic on the multicast group is expected.
func decodeEnvelope(buf []byte) (header uint64, id Id, payload []byte, ok bool) {
	if len(buf) < envelopeHeaderLen {
		return 0, 0, nil, false
	}
	header = binary.BigEndian.Uint64(buf[0:8])
	id = binary.BigEndian.Uint64(buf[8:16])
	payload = buf[16:]
	return header, id, payload, true
}
