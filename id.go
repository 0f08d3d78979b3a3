package instancechart

import (
	"crypto/rand"
	"encoding/binary"
)

// Id identifies one instance within a chart's header scope. Ids are not
// guaranteed unique across processes unless the caller arranges it; a chart
// whose own id collides with a peer's id will simply never learn about that
// peer, since incoming datagrams carrying our own id are dropped as if they
// were our own echo.
type Id = uint64

// RandomId returns a cryptographically random id, suitable for callers that
// have no natural identity to reuse (process group id, assigned slot, etc.)
func RandomId() Id {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("instancechart: failed to read random id: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}
