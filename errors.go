package instancechart

import (
	"errors"
	"fmt"
)

// Sentinel errors returned while setting up a chart's socket. Both the
// sentinel and the underlying OS error are wrapped with %w, so callers can
// compare the failure class with errors.Is and still inspect the OS error
// with errors.Is or errors.As.
var (
	ErrConstruct     = errors.New("instancechart: construct socket")
	ErrSetReuse      = errors.New("instancechart: set SO_REUSEPORT")
	ErrSetBroadcast  = errors.New("instancechart: set SO_BROADCAST")
	ErrSetMulticast  = errors.New("instancechart: set multicast loopback")
	ErrSetTTL        = errors.New("instancechart: set multicast TTL")
	ErrJoinMulticast = errors.New("instancechart: join multicast group")
)

// BindError reports a failed bind, carrying the port that was attempted so
// callers scanning a range of ports (see cmd/checkports) can report which
// ports are unavailable without parsing the error string.
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("instancechart: bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// LaggedError is returned by a Notify subscriber that could not keep up with
// the rate of new entries. The subscription is still usable; Skipped
// entries were dropped from the ring buffer before the subscriber could
// read them.
type LaggedError struct {
	Skipped int
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("instancechart: lagged, skipped %d entries", e.Skipped)
}

func wrapErrno(kind error, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}
