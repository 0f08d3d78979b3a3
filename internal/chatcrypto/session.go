// Package chatcrypto provides the encrypted content channel for cmd/chat.
// It is deliberately separate from the discovery wire protocol: discovery
// traffic is sent in the clear (see the chart package), only the TCP chat
// payloads exchanged between discovered peers are encrypted here.
//
// Uses ML-KEM-768 for key exchange and AES-256-GCM for the symmetric
// channel, the same pairing the donor codebase's mesh tunnel layer used.
package chatcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/hkdf"
)

// KeyPair holds this instance's ML-KEM-768 key pair.
type KeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// Session holds an established encrypted channel to one peer.
type Session struct {
	SharedKey []byte
	AEAD      cipher.AEAD
}

// Manager manages chat sessions to multiple peers, keyed by their chart id.
type Manager struct {
	mu       sync.RWMutex
	keys     *KeyPair
	sessions map[uint64]*Session
	logger   *slog.Logger
}

// NewManager generates a fresh ML-KEM-768 key pair and returns a Manager.
func NewManager() (*Manager, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ML-KEM-768 keys: %w", err)
	}

	pubBytes := make([]byte, mlkem768.PublicKeySize)
	privBytes := make([]byte, mlkem768.PrivateKeySize)
	pk.Pack(pubBytes)
	sk.Pack(privBytes)

	return &Manager{
		keys:     &KeyPair{PublicKey: pubBytes, PrivateKey: privBytes},
		sessions: make(map[uint64]*Session),
		logger:   slog.Default().With("component", "chatcrypto"),
	}, nil
}

// PublicKey returns the public key to hand to peers during the handshake.
func (m *Manager) PublicKey() []byte { return m.keys.PublicKey }

// Respond processes a peer's public key, establishing our half of the
// session, and returns the ciphertext the peer needs to derive the same
// shared secret.
func (m *Manager) Respond(peerID uint64, peerPubKey []byte) ([]byte, error) {
	var peerPK mlkem768.PublicKey
	if err := peerPK.Unpack(peerPubKey); err != nil {
		return nil, fmt.Errorf("invalid peer public key: %w", err)
	}

	ct := make([]byte, mlkem768.CiphertextSize)
	ss := make([]byte, mlkem768.SharedKeySize)
	peerPK.EncapsulateTo(ct, ss, nil)

	if err := m.establish(peerID, ss); err != nil {
		return nil, err
	}
	m.logger.Info("chat session responded", "peer_id", peerID)
	return ct, nil
}

// Complete processes the ciphertext from Respond and finishes establishing
// our session with the peer.
func (m *Manager) Complete(peerID uint64, ciphertext []byte) error {
	var sk mlkem768.PrivateKey
	if err := sk.Unpack(m.keys.PrivateKey); err != nil {
		return fmt.Errorf("invalid local private key: %w", err)
	}

	ss := make([]byte, mlkem768.SharedKeySize)
	sk.DecapsulateTo(ss, ciphertext)

	if err := m.establish(peerID, ss); err != nil {
		return err
	}
	m.logger.Info("chat session completed", "peer_id", peerID)
	return nil
}

func (m *Manager) establish(peerID uint64, sharedSecret []byte) error {
	key, err := deriveKey(sharedSecret)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create GCM: %w", err)
	}

	m.mu.Lock()
	m.sessions[peerID] = &Session{SharedKey: key, AEAD: aead}
	m.mu.Unlock()
	return nil
}

func deriveKey(sharedSecret []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, sharedSecret, nil, []byte("instancechart-chat-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts a chat line for peerID, prefixing the nonce.
func (m *Manager) Seal(peerID uint64, plaintext []byte) ([]byte, error) {
	m.mu.RLock()
	session, ok := m.sessions[peerID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no chat session with peer %d", peerID)
	}

	nonce := make([]byte, session.AEAD.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return session.AEAD.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a chat line received from peerID.
func (m *Manager) Open(peerID uint64, ciphertext []byte) ([]byte, error) {
	m.mu.RLock()
	session, ok := m.sessions[peerID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no chat session with peer %d", peerID)
	}

	nonceSize := session.AEAD.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return session.AEAD.Open(nil, nonce, ct, nil)
}

// HasSession reports whether a session with peerID has been established.
func (m *Manager) HasSession(peerID uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[peerID]
	return ok
}

// handshakeMagic marks the fixed-format handshake frames exchanged before
// the first encrypted chat line. It has no cryptographic purpose — it's
// only there so a peer can tell a handshake frame from a chat frame.
const handshakeMagic = "ICK1"

// EncodeHandshake frames a public key for transmission: magic ‖ len ‖ key.
func EncodeHandshake(pubKey []byte) []byte {
	buf := make([]byte, len(handshakeMagic)+4+len(pubKey))
	copy(buf, handshakeMagic)
	binary.BigEndian.PutUint32(buf[len(handshakeMagic):], uint32(len(pubKey)))
	copy(buf[len(handshakeMagic)+4:], pubKey)
	return buf
}

// DecodeHandshake validates and extracts the public key from a handshake
// frame.
func DecodeHandshake(buf []byte) ([]byte, error) {
	prefix := len(handshakeMagic)
	if len(buf) < prefix+4 || string(buf[:prefix]) != handshakeMagic {
		return nil, fmt.Errorf("not a handshake frame")
	}
	n := binary.BigEndian.Uint32(buf[prefix : prefix+4])
	if len(buf) < prefix+4+int(n) {
		return nil, fmt.Errorf("handshake frame truncated")
	}
	return buf[prefix+4 : prefix+4+int(n)], nil
}
