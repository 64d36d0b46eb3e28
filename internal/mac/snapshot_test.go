package mac_test

import (
	"testing"

	"github.com/dantte-lp/godash7/internal/mac"
)

func TestSnapshotReflectsNetConfig(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine(t)

	snap := engine.Snapshot()
	if snap.Role != "endpoint" {
		t.Errorf("Snapshot().Role = %q, want %q", snap.Role, "endpoint")
	}
	if snap.TopSession != nil {
		t.Errorf("Snapshot().TopSession = %+v, want nil on a freshly built engine", snap.TopSession)
	}
}

func TestSnapshotReportsTopSession(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine(t)

	sess, err := engine.Stack.New(0, mac.NetInit, 3)
	if err != nil {
		t.Fatalf("Stack.New: %v", err)
	}
	sess.Subnet = 0x5A
	sess.Counter = 42

	snap := engine.Snapshot()
	if snap.TopSession == nil {
		t.Fatal("Snapshot().TopSession = nil, want the pushed session")
	}
	if snap.TopSession.Channel != 3 || snap.TopSession.Subnet != 0x5A || snap.TopSession.Counter != 42 {
		t.Errorf("Snapshot().TopSession = %+v, want channel 3, subnet 0x5A, counter 42", snap.TopSession)
	}
	if snap.TopSession.State != "init" {
		t.Errorf("Snapshot().TopSession.State = %q, want %q", snap.TopSession.State, "init")
	}
}

func TestNetStateString(t *testing.T) {
	t.Parallel()

	if got := mac.NetState(0).String(); got != "none" {
		t.Errorf("NetState(0).String() = %q, want %q", got, "none")
	}

	combined := mac.NetInit.Set(mac.NetConnected)
	if got := combined.String(); got != "init|connected" {
		t.Errorf("combined.String() = %q, want %q", got, "init|connected")
	}
}

func TestRoleString(t *testing.T) {
	t.Parallel()

	if got := mac.RoleEndpoint.String(); got != "endpoint" {
		t.Errorf("RoleEndpoint.String() = %q, want %q", got, "endpoint")
	}
	if got := mac.RoleNonEndpoint.String(); got != "non_endpoint" {
		t.Errorf("RoleNonEndpoint.String() = %q, want %q", got, "non_endpoint")
	}
}
