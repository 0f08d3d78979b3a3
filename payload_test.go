package instancechart

import "testing"

func TestServicePort_RoundTrip(t *testing.T) {
	p := ServicePort(8080)
	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, err := decodeServicePort(b)
	if err != nil {
		t.Fatalf("decodeServicePort: %v", err)
	}
	if got != p {
		t.Errorf("got %d, want %d", got, p)
	}
}

func TestDecodeServicePort_WrongLength(t *testing.T) {
	if _, err := decodeServicePort([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for wrong-length buffer")
	}
}

func TestServicePorts_RoundTrip(t *testing.T) {
	ports := ServicePorts{80, 443, 9090}
	b, err := ports.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	decode := decodeServicePorts(len(ports))
	got, err := decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(ports) {
		t.Fatalf("len = %d, want %d", len(got), len(ports))
	}
	for i := range ports {
		if got[i] != ports[i] {
			t.Errorf("port[%d] = %d, want %d", i, got[i], ports[i])
		}
	}
}

func TestDecodeServicePorts_WrongLength(t *testing.T) {
	decode := decodeServicePorts(2)
	if _, err := decode([]byte{0, 1}); err == nil {
		t.Error("expected error for wrong-length buffer")
	}
}
