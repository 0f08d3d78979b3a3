// instancechart-chat is a terminal chat demo: instances find each other
// through a chart announcing a TCP listen port, then exchange lines over an
// ML-KEM-768-derived encrypted channel. Discovery traffic itself stays
// unencrypted; only the chat content is.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/x0tta6bl4/instancechart"
	"github.com/x0tta6bl4/instancechart/internal/chatconn"
	"github.com/x0tta6bl4/instancechart/internal/chatcrypto"
)

func main() {
	discoveryPort := flag.Int("discovery-port", instancechart.DefaultDiscoveryPort, "discovery UDP port")
	localDiscovery := flag.Bool("local", false, "enable SO_REUSEPORT for same-host testing")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	if err := run(*discoveryPort, *localDiscovery); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(discoveryPort int, localDiscovery bool) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for chat connections: %w", err)
	}
	defer ln.Close()

	tcpAddr := ln.Addr().(*net.TCPAddr)

	chart, err := instancechart.NewBuilder().
		WithRandomID().
		WithDiscoveryPort(discoveryPort).
		WithLocalDiscovery(localDiscovery).
		BuildPort(instancechart.ServicePort(tcpAddr.Port))
	if err != nil {
		return fmt.Errorf("build chart: %w", err)
	}

	crypto, err := chatcrypto.NewManager()
	if err != nil {
		return fmt.Errorf("chat crypto: %w", err)
	}

	conns := chatconn.NewManager(func(peerID uint64, line []byte) {
		handleIncoming(crypto, peerID, line)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go acceptLoop(ln, conns)
	go dialNewPeers(chart, conns, crypto)
	go func() { _ = chart.Maintain(ctx) }()
	go readStdin(conns, crypto)

	fmt.Printf("instance %d listening for chat on 127.0.0.1:%d, discovery port %d\n",
		chart.OurID(), tcpAddr.Port, discoveryPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
	return nil
}

func acceptLoop(ln net.Listener, conns *chatconn.Manager) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		// The peer id is learned from the handshake frame, not the TCP
		// accept — placeholder 0 until the handshake completes is fine
		// here since chat demo traffic is local-network and low volume.
		conns.Adopt(0, c)
	}
}

func dialNewPeers(chart *instancechart.PortChart, conns *chatconn.Manager, crypto *chatcrypto.Manager) {
	n := chart.Notify()
	defer n.Close()
	for {
		id, entry, err := n.Recv()
		if err != nil {
			slog.Warn("chat notify lagged", "error", err)
			continue
		}
		addr := fmt.Sprintf("%s:%d", entry.Addr, entry.Payload)
		if err := conns.Dial(id, addr); err != nil {
			slog.Warn("failed to dial peer", "peer_id", id, "addr", addr, "error", err)
			continue
		}
		if err := conns.SendTo(id, chatcrypto.EncodeHandshake(crypto.PublicKey())); err != nil {
			slog.Warn("failed to send handshake", "peer_id", id, "error", err)
		}
	}
}

func handleIncoming(crypto *chatcrypto.Manager, peerID uint64, line []byte) {
	if pubKey, err := chatcrypto.DecodeHandshake(line); err == nil {
		slog.Info("received handshake", "peer_id", peerID)
		_, _ = crypto.Respond(peerID, pubKey)
		return
	}
	plaintext, err := crypto.Open(peerID, line)
	if err != nil {
		slog.Warn("failed to decrypt chat line", "peer_id", peerID, "error", err)
		return
	}
	fmt.Printf("%d> %s\n", peerID, plaintext)
}

func readStdin(conns *chatconn.Manager, crypto *chatcrypto.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		for _, id := range conns.PeerIDs() {
			if !crypto.HasSession(id) {
				continue
			}
			sealed, err := crypto.Seal(id, line)
			if err != nil {
				slog.Warn("failed to seal chat line", "peer_id", id, "error", err)
				continue
			}
			if err := conns.SendTo(id, sealed); err != nil {
				slog.Warn("failed to send chat line", "peer_id", id, "error", err)
			}
		}
	}
}
