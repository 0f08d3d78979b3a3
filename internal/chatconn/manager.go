// Package chatconn keeps the TCP connections cmd/chat opens to peers it
// learns about through a chart, independent of the discovery machinery
// itself.
package chatconn

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Peer is one connected chat peer.
type Peer struct {
	ID        uint64
	Conn      net.Conn
	Addr      net.Addr
	Connected time.Time
	BytesSent int64
	BytesRecv int64
}

// LineHandler is called for every line a peer sends.
type LineHandler func(peerID uint64, line []byte)

// Manager owns the set of live peer connections.
type Manager struct {
	mu    sync.RWMutex
	peers map[uint64]*Peer

	handler LineHandler
	logger  *slog.Logger

	msgSent int64
	msgRecv int64
}

// NewManager creates an empty connection manager. handler is invoked from a
// per-peer read goroutine for every line received.
func NewManager(handler LineHandler) *Manager {
	return &Manager{
		peers:   make(map[uint64]*Peer),
		handler: handler,
		logger:  slog.Default().With("component", "chatconn"),
	}
}

// Dial opens a connection to a peer at addr and starts reading lines from
// it.
func (m *Manager) Dial(peerID uint64, addr string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	m.adopt(peerID, conn)
	return nil
}

// Adopt registers an already-open connection, e.g. one accepted on a
// listener, and starts reading lines from it.
func (m *Manager) Adopt(peerID uint64, conn net.Conn) {
	m.adopt(peerID, conn)
}

func (m *Manager) adopt(peerID uint64, conn net.Conn) {
	peer := &Peer{ID: peerID, Conn: conn, Addr: conn.RemoteAddr(), Connected: time.Now()}

	m.mu.Lock()
	m.peers[peerID] = peer
	m.mu.Unlock()

	m.logger.Info("peer connected", "peer_id", peerID, "addr", peer.Addr)
	go m.readLoop(peer)
}

func (m *Manager) readLoop(peer *Peer) {
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	defer m.drop(peer.ID)

	for {
		n, err := peer.Conn.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)

		m.mu.Lock()
		peer.BytesRecv += int64(n)
		m.msgRecv++
		m.mu.Unlock()

		for {
			idx := indexByte(buf, '\n')
			if idx < 0 {
				break
			}
			line := buf[:idx]
			buf = buf[idx+1:]
			if m.handler != nil {
				m.handler(peer.ID, line)
			}
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (m *Manager) drop(peerID uint64) {
	m.mu.Lock()
	peer, ok := m.peers[peerID]
	delete(m.peers, peerID)
	m.mu.Unlock()
	if ok {
		peer.Conn.Close()
		m.logger.Info("peer disconnected", "peer_id", peerID)
	}
}

// SendTo writes a line, newline-terminated, to a specific peer.
func (m *Manager) SendTo(peerID uint64, line []byte) error {
	m.mu.RLock()
	peer, ok := m.peers[peerID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection to peer %d", peerID)
	}

	n, err := peer.Conn.Write(append(line, '\n'))
	if err != nil {
		return fmt.Errorf("send to %d: %w", peerID, err)
	}

	m.mu.Lock()
	peer.BytesSent += int64(n)
	m.msgSent++
	m.mu.Unlock()
	return nil
}

// Broadcast writes a line to every connected peer, skipping ones that fail.
func (m *Manager) Broadcast(line []byte) {
	m.mu.RLock()
	ids := make([]uint64, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.SendTo(id, line); err != nil {
			m.logger.Warn("broadcast to peer failed", "peer_id", id, "error", err)
		}
	}
}

// PeerIDs returns a snapshot of currently connected peer ids.
func (m *Manager) PeerIDs() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint64, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	return ids
}

// Connected reports whether peerID currently has a live connection.
func (m *Manager) Connected(peerID uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.peers[peerID]
	return ok
}

// Count returns the number of connected peers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peers)
}
