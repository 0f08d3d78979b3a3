package instancechart

import (
	"fmt"
	"net"
	"testing"
)

// status is a small custom payload used to exercise MsgChart[T].
type status string

func (s status) MarshalBinary() ([]byte, error) { return []byte(s), nil }

func decodeStatus(b []byte) (status, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("empty status")
	}
	return status(b), nil
}

func testMsgChart(ourID Id, ourMsg status) *MsgChart[status] {
	core := newChart[status](DefaultHeader, ourID, ourMsg, decodeStatus, nil, DefaultDiscoveryPort)
	return &MsgChart[status]{core: core}
}

func TestMsgChart_GetAndEntriesVec(t *testing.T) {
	c := testMsgChart(1, "ready")
	c.core.insert(2, net.ParseIP("10.0.0.2"), status("ready"))

	addr, msg, ok := c.Get(2)
	if !ok {
		t.Fatal("Get(2) not found")
	}
	if msg != "ready" {
		t.Errorf("msg = %q, want ready", msg)
	}
	if !addr.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("addr = %v", addr)
	}

	if got := c.EntriesVec(); len(got) != 1 {
		t.Errorf("EntriesVec len = %d, want 1", len(got))
	}
}

func TestMsgChart_OurMsg(t *testing.T) {
	c := testMsgChart(1, "booting")
	if c.OurMsg() != "booting" {
		t.Errorf("OurMsg() = %q, want booting", c.OurMsg())
	}
}

func TestMsgChart_NotifyReceivesFirstSighting(t *testing.T) {
	c := testMsgChart(1, "ready")
	n := c.Notify()
	defer n.Close()

	c.core.insert(2, net.ParseIP("10.0.0.2"), status("ready"))

	id, entry, err := n.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if id != 2 {
		t.Errorf("id = %d, want 2", id)
	}
	if entry.Payload != "ready" {
		t.Errorf("payload = %q, want ready", entry.Payload)
	}
}
