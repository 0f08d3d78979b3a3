package instancechart

import (
	"net"
	"testing"
)

func TestPortChart_AddrVecAndGetAddr(t *testing.T) {
	core := testChart(1)
	core.insert(2, net.ParseIP("10.0.0.2"), ServicePort(8081))
	c := &PortChart{core: core}

	if got := c.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}

	addr, port, ok := c.GetAddr(2)
	if !ok {
		t.Fatal("GetAddr(2) not found")
	}
	if !addr.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("addr = %v", addr)
	}
	if port != 8081 {
		t.Errorf("port = %d, want 8081", port)
	}

	all := c.AddrVec()
	if len(all) != 1 {
		t.Fatalf("AddrVec len = %d, want 1", len(all))
	}
	if all[0].ID != 2 {
		t.Errorf("AddrVec()[0].ID = %d, want 2", all[0].ID)
	}
	if !all[0].Addr.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("AddrVec()[0].Addr = %v", all[0].Addr)
	}
	if all[0].Payload != 8081 {
		t.Errorf("AddrVec()[0].Payload = %d, want 8081", all[0].Payload)
	}
}

func TestPortChart_GetAddrPanicsOnOwnID(t *testing.T) {
	c := &PortChart{core: testChart(1)}
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.GetAddr(1)
}

func TestPortChart_OurServicePort(t *testing.T) {
	core := newChart[ServicePort](DefaultHeader, 1, ServicePort(7777), decodeServicePort, nil, DefaultDiscoveryPort)
	c := &PortChart{core: core}
	if c.OurServicePort() != 7777 {
		t.Errorf("OurServicePort() = %d, want 7777", c.OurServicePort())
	}
}

func TestPortChart_ForgetThenGetNotFound(t *testing.T) {
	core := testChart(1)
	core.insert(2, net.ParseIP("10.0.0.2"), ServicePort(8081))
	c := &PortChart{core: core}

	c.Forget(2)
	if _, _, ok := c.GetAddr(2); ok {
		t.Error("entry should be gone after Forget")
	}
}

func TestNotifyPort_RecvAddr(t *testing.T) {
	c := &PortChart{core: testChart(1)}
	n := c.Notify()
	defer n.Close()

	c.core.insert(2, net.ParseIP("10.0.0.2"), ServicePort(8081))

	id, addr, port, err := n.RecvAddr()
	if err != nil {
		t.Fatalf("RecvAddr: %v", err)
	}
	if id != 2 {
		t.Errorf("id = %d, want 2", id)
	}
	if !addr.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("addr = %v", addr)
	}
	if port != 8081 {
		t.Errorf("port = %d, want 8081", port)
	}
}
