package instancechart

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeEnvelope_RoundTrip(t *testing.T) {
	payload := []byte{0x1, 0x2, 0x3, 0x4}
	buf := encodeEnvelope(DefaultHeader, 42, payload)

	header, id, got, ok := decodeEnvelope(buf)
	if !ok {
		t.Fatal("decodeEnvelope returned ok=false")
	}
	if header != DefaultHeader {
		t.Errorf("header = %d, want %d", header, DefaultHeader)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %v, want %v", got, payload)
	}
}

func TestDecodeEnvelope_TooShort(t *testing.T) {
	_, _, _, ok := decodeEnvelope([]byte{1, 2, 3})
	if ok {
		t.Error("decodeEnvelope should reject a too-short buffer")
	}
}

func TestDecodeEnvelope_EmptyPayload(t *testing.T) {
	buf := encodeEnvelope(DefaultHeader, 1, nil)
	_, _, payload, ok := decodeEnvelope(buf)
	if !ok {
		t.Fatal("decodeEnvelope returned ok=false")
	}
	if len(payload) != 0 {
		t.Errorf("payload = %v, want empty", payload)
	}
}

func TestEncodeEnvelope_PanicsOnOversize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for oversize message")
		}
	}()
	encodeEnvelope(DefaultHeader, 1, make([]byte, maxMessageSize))
}
