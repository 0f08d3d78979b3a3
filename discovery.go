package instancechart

import (
	"context"
	"log/slog"
	"math"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// recvBufferSize bounds a single incoming datagram read.
const recvBufferSize = 1024

// reactiveReplyGuard is how close the next scheduled broadcast has to be
// before the receiver loop skips sending an immediate unicast reply to a
// newly discovered peer — no point replying individually a few
// milliseconds before everyone hears the same information anyway.
const reactiveReplyGuard = 100 * time.Millisecond

// maintain runs the receiver and broadcaster loops for core until ctx is
// cancelled or one of them fails unrecoverably. It returns once both
// goroutines have exited, so no goroutine outlives this call — the
// structured-concurrency analogue of the original's cancel-on-drop task
// handles. Exposed per payload kind as the Maintain method on each chart
// wrapper type.
func maintain[T Payload](ctx context.Context, core *chart[T]) error {
	logger := slog.Default().With("component", "instancechart", "id", core.ourID())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return receiveLoop(ctx, core, logger)
	})
	g.Go(func() error {
		return broadcastLoop(ctx, core, logger)
	})

	go func() {
		<-ctx.Done()
		core.conn.Close()
	}()

	return g.Wait()
}

// Maintain runs the receiver and broadcaster loops until ctx is cancelled.
func (c *PortChart) Maintain(ctx context.Context) error { return maintain(ctx, c.core) }

// Maintain runs the receiver and broadcaster loops until ctx is cancelled.
func (c *PortsChart) Maintain(ctx context.Context) error { return maintain(ctx, c.core) }

// Maintain runs the receiver and broadcaster loops until ctx is cancelled.
func (c *MsgChart[T]) Maintain(ctx context.Context) error { return maintain(ctx, c.core) }

func receiveLoop[T Payload](ctx context.Context, core *chart[T], logger *slog.Logger) error {
	buf := make([]byte, recvBufferSize)
	for {
		n, addr, err := core.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		var from net.IP
		if addr != nil {
			from = addr.IP
		}

		id, firstSeen, accepted := core.process(buf[:n], from)
		if !accepted {
			continue
		}
		if firstSeen {
			logger.Debug("peer discovered", "peer_id", id, "addr", from)
			if !core.broadcastSoon(time.Now(), reactiveReplyGuard) {
				reply := core.discoveryBuf()
				_, _ = core.conn.WriteToUDP(reply, addr)
			}
		}
	}
}

func broadcastLoop[T Payload](ctx context.Context, core *chart[T], logger *slog.Logger) error {
	dst := multicastAddr(core.discoveryPort())
	for {
		if d := core.interval.Until(time.Now()); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		buf := core.discoveryBuf()
		if _, err := core.conn.WriteToUDP(buf, dst); err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		logger.Debug("broadcast sent", "size", len(buf))
		core.interval.Next(time.Now())
	}
}

// sized is satisfied by every chart wrapper; FoundEveryone and
// FoundMajority only need Size, not the payload-specific accessors.
type sized interface {
	Size() int
}

// FoundEveryone blocks until c has discovered fullSize-1 peers (i.e. its
// own entry brings the total to fullSize), or ctx is cancelled. Panics if
// fullSize <= 2.
func FoundEveryone(ctx context.Context, c sized, fullSize int) error {
	if fullSize <= 2 {
		panic("instancechart: FoundEveryone requires fullSize > 2")
	}
	return pollSize(ctx, c, fullSize)
}

// FoundMajority blocks until c's Size reaches ceil(fullSize/2), or ctx is
// cancelled. For an odd fullSize that is a strict majority; for an even
// fullSize it is exactly half. Panics if fullSize <= 2.
func FoundMajority(ctx context.Context, c sized, fullSize int) error {
	if fullSize <= 2 {
		panic("instancechart: FoundMajority requires fullSize > 2")
	}
	majority := int(math.Ceil(float64(fullSize) * 0.5))
	return pollSize(ctx, c, majority)
}

func pollSize(ctx context.Context, c sized, target int) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	if c.Size() >= target {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.Size() >= target {
				return nil
			}
		}
	}
}
