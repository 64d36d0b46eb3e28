package mac_test

import (
	"testing"

	"github.com/dantte-lp/godash7/internal/mac"
)

func TestSessionStackNewAndTop(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(4)
	if stack.Top() != nil {
		t.Fatal("fresh stack should have no top session")
	}

	sess, err := stack.New(100, mac.NetState(mac.NetInit).Set(mac.NetReqTx), 5)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	if stack.Top() != sess {
		t.Error("Top() should return the just-pushed session")
	}
	if sess.ID == 0 {
		t.Error("allocated session id must be nonzero")
	}
	if sess.Channel != 5 {
		t.Errorf("Channel = %d, want 5", sess.Channel)
	}
}

// TestSessionStackOverflowRejectsWaitingSession covers spec §7's "Session
// stack overflow" error: New with wait != 0 on a full stack must fail
// rather than evict.
func TestSessionStackOverflowRejectsWaitingSession(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(2)
	for i := 0; i < 2; i++ {
		if _, err := stack.New(100, mac.NetInit, uint8(i)); err != nil {
			t.Fatalf("New[%d]: unexpected error: %v", i, err)
		}
	}

	_, err := stack.New(100, mac.NetInit, 9)
	if err == nil {
		t.Fatal("New on a full stack with wait != 0 should fail")
	}
}

// TestSessionStackAdHocAlwaysSucceeds covers spec §4.5's guarantee that
// ad-hoc (wait == 0) sessions always succeed, evicting the current top.
func TestSessionStackAdHocAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(1)
	first, err := stack.New(100, mac.NetInit, 1)
	if err != nil {
		t.Fatalf("New[0]: unexpected error: %v", err)
	}

	second, err := stack.New(0, mac.NetInit, 2)
	if err != nil {
		t.Fatalf("ad-hoc New on a full stack should always succeed, got: %v", err)
	}
	if stack.Top() != second {
		t.Error("ad-hoc session should have evicted the prior top")
	}
	if first == second {
		t.Error("evicted and new sessions should be distinct values")
	}
}

func TestSessionStackPopAndCount(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(4)
	if stack.Count() != -1 {
		t.Errorf("Count() on an empty stack = %d, want -1 (spec §4.5)", stack.Count())
	}

	_, _ = stack.New(50, mac.NetInit, 1)
	if stack.Count() != 0 {
		t.Errorf("Count() with one frame = %d, want 0", stack.Count())
	}

	stack.Pop()
	if stack.Top() != nil {
		t.Error("Top() after Pop of the only frame should be nil")
	}
}

func TestSessionStackRefreshDropsScrapped(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(4)
	sess, _ := stack.New(50, mac.NetInit, 1)
	sess.State = sess.State.Set(mac.NetScrap)

	stack.Refresh(10)
	if stack.Top() != nil {
		t.Error("Refresh should pop a scrapped top session")
	}
}

func TestSessionStackDropRetainsHold(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(4)
	sess, _ := stack.New(50, mac.NetInit, 1)

	stack.Drop()
	if !sess.State.Has(mac.NetHold) {
		t.Error("Drop should mark the top session NetHold without removing it")
	}
	if stack.Top() == nil {
		t.Error("Drop must retain the frame, unlike Pop")
	}
}

// TestAllocateSessionIDUniqueAcrossManyFrames exercises the bounded-retry
// allocator across more ids than fit in the stack at once by popping as we
// go, checking no id repeats among live frames.
func TestAllocateSessionIDUniqueAcrossManyFrames(t *testing.T) {
	t.Parallel()

	const depth = 4
	stack := mac.NewSessionStack(depth)
	live := make(map[uint16]struct{}, depth)
	for i := 0; i < 500; i++ {
		if stack.Count()+1 == depth {
			delete(live, stack.Top().ID) // an ad-hoc New evicts the full stack's top
		}
		sess, err := stack.New(0, mac.NetInit, uint8(i))
		if err != nil {
			t.Fatalf("New[%d]: unexpected error: %v", i, err)
		}
		if _, dup := live[sess.ID]; dup {
			t.Fatalf("New[%d]: session id %d duplicates a live session", i, sess.ID)
		}
		live[sess.ID] = struct{}{}
	}
}

func TestSessionActiveReflectsScrapState(t *testing.T) {
	t.Parallel()

	stack := mac.NewSessionStack(2)
	sess, _ := stack.New(10, mac.NetInit, 1)
	if !sess.Active() {
		t.Error("freshly created session should be Active")
	}
	sess.State = sess.State.Set(mac.NetScrap)
	if sess.Active() {
		t.Error("scrapped session should report Active() == false")
	}
}
