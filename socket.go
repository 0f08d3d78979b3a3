package instancechart

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"github.com/libp2p/go-reuseport"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// multicastGroup and multicastTTL are fixed by the wire protocol: every
// instance in a deployment must agree on them to find each other at all, so
// unlike the discovery port they are not configurable per chart.
const (
	multicastGroup = "224.0.0.251"
	multicastTTL   = 4
)

// socketOptions controls how openSocket binds and joins the multicast
// group. LocalDiscovery enables SO_REUSEPORT so several instances on the
// same host can share one discovery port — useful for local testing and
// for cmd/checkports, which deliberately runs two instances per candidate
// port.
type socketOptions struct {
	DiscoveryPort  int
	LocalDiscovery bool
}

// openSocket builds, configures and binds the UDP socket a chart uses for
// both sending and receiving discovery traffic, and joins the multicast
// group. Each failure is wrapped in the error kind matching the setup step
// that failed, so callers can tell a busy port from a host with no
// multicast-capable interface.
func openSocket(opts socketOptions) (*net.UDPConn, error) {
	var controlErr error
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
					controlErr = wrapErrno(ErrSetBroadcast, err)
					return
				}
				if opts.LocalDiscovery {
					if err := reuseport.Control("udp4", "", c); err != nil {
						controlErr = wrapErrno(ErrSetReuse, err)
						return
					}
				}
			})
		},
	}

	addr := fmt.Sprintf(":%d", opts.DiscoveryPort)
	pconn, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, &BindError{Port: opts.DiscoveryPort, Err: err}
	}
	if controlErr != nil {
		pconn.Close()
		return nil, controlErr
	}

	conn, ok := pconn.(*net.UDPConn)
	if !ok {
		pconn.Close()
		return nil, wrapErrno(ErrConstruct, fmt.Errorf("unexpected packet conn type %T", pconn))
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(multicastTTL); err != nil {
		conn.Close()
		return nil, wrapErrno(ErrSetTTL, err)
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		conn.Close()
		return nil, wrapErrno(ErrSetMulticast, err)
	}

	group := net.ParseIP(multicastGroup)
	joined := false
	ifaces, err := net.Interfaces()
	if err != nil {
		conn.Close()
		return nil, wrapErrno(ErrJoinMulticast, err)
	}
	var lastJoinErr error
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pc.JoinGroup(&ifi, &net.UDPAddr{IP: group}); err == nil {
			joined = true
		} else {
			lastJoinErr = err
		}
	}
	if !joined {
		conn.Close()
		if lastJoinErr == nil {
			lastJoinErr = fmt.Errorf("no multicast-capable interface found")
		}
		return nil, wrapErrno(ErrJoinMulticast, lastJoinErr)
	}

	return conn, nil
}

// multicastAddr is the destination used for every broadcast: the multicast
// group on the chart's own discovery port. Earlier drafts of this protocol
// hardcoded the default discovery port here instead of the chart's
// configured one, which silently broke any chart built with a non-default
// port — broadcasts always reuse discoveryPort.
func multicastAddr(discoveryPort int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(multicastGroup), Port: discoveryPort}
}
