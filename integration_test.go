package instancechart

import (
	"context"
	"testing"
	"time"
)

// buildLocal is a small helper for the integration tests below: every
// instance shares one discovery port via LocalDiscovery so several charts
// can run side by side on the loopback interface of a single test host.
func buildLocal(t *testing.T, discPort int, ourPort ServicePort) *PortChart {
	t.Helper()
	c, err := NewBuilder().
		WithRandomID().
		WithDiscoveryPort(discPort).
		WithLocalDiscovery(true).
		WithRampdown(5*time.Millisecond, 50*time.Millisecond, time.Second).
		BuildPort(ourPort)
	if err != nil {
		t.Fatalf("BuildPort: %v", err)
	}
	return c
}

// TestIntegration_TwoInstancesFindEachOther builds two PortChart instances
// sharing a discovery port and checks they converge to size 2.
func TestIntegration_TwoInstancesFindEachOther(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multicast integration test in -short mode")
	}

	const discPort = 18080
	a := buildLocal(t, discPort, 9001)
	b := buildLocal(t, discPort, 9002)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go a.Maintain(ctx)
	go b.Maintain(ctx)

	// FoundEveryone requires a cluster size above 2; a two-node test has to
	// poll Size directly instead (see cmd/checkports for the same pattern).
	if err := pollSize(ctx, a, 2); err != nil {
		t.Fatalf("instance a never found instance b: %v", err)
	}
	if err := pollSize(ctx, b, 2); err != nil {
		t.Fatalf("instance b never found instance a: %v", err)
	}
}

// TestIntegration_NotifyFiresOnFirstSighting checks that a fresh Notify
// subscription's first sighting is the other instance's id.
func TestIntegration_NotifyFiresOnFirstSighting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multicast integration test in -short mode")
	}

	const discPort = 18081
	a := buildLocal(t, discPort, 9101)
	b := buildLocal(t, discPort, 9102)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := a.Notify()
	defer n.Close()

	go a.Maintain(ctx)
	go b.Maintain(ctx)

	id, _, err := n.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if id != b.OurID() {
		t.Errorf("notified id = %d, want instance b's id %d", id, b.OurID())
	}
}

// TestIntegration_FoundMajorityOfThree builds three instances and waits for
// each to see a strict majority of the group.
func TestIntegration_FoundMajorityOfThree(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multicast integration test in -short mode")
	}

	const discPort = 18082
	instances := []*PortChart{
		buildLocal(t, discPort, 9201),
		buildLocal(t, discPort, 9202),
		buildLocal(t, discPort, 9203),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, c := range instances {
		go c.Maintain(ctx)
	}

	for i, c := range instances {
		if err := FoundMajority(ctx, c, len(instances)); err != nil {
			t.Errorf("instance %d never found a majority: %v", i, err)
		}
	}
}
