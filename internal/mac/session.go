package mac

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// maxIDAllocAttempts bounds the retry loop in allocateSessionID, mirroring
// the bounded-retry discriminator-allocation idiom used elsewhere in the
// pack for collision-checked random id generation.
const maxIDAllocAttempts = 100

// Session represents one unit of MAC dialog (spec §3).
type Session struct {
	ID       uint16
	Channel  uint8
	Subnet   uint8
	Flags    uint8
	DialogID uint8
	State    NetState
	Counter  int32 // ticks until next action
	TxLength int   // current_tx_length, bytes (spec §4.1 Processing task)

	Comm Comm
}

// Active reports whether the session is still eligible for dispatch:
// not scrapped and not dropped.
func (s *Session) Active() bool {
	return s != nil && !s.State.Any(NetScrap|NetHold)
}

// SessionStack is the bounded LIFO stack of spec §4.5. Depth is fixed
// at construction; New on a full stack returns (nil, ErrSessionStackFull)
// except for ad-hoc sessions (wait == 0), which always succeed by
// evicting the current top if necessary.
type SessionStack struct {
	frames   []*Session
	capacity int
	nextID   uint16
	used     map[uint16]struct{}
}

// NewSessionStack constructs a stack bounded to capacity frames.
func NewSessionStack(capacity int) *SessionStack {
	return &SessionStack{
		frames:   make([]*Session, 0, capacity),
		capacity: capacity,
		used:     make(map[uint16]struct{}),
	}
}

// allocateSessionID returns a random nonzero 16-bit id unique among
// currently live sessions, per spec §6 ("returns a 16-bit opaque
// session id"). Grounded on the crypto/rand bounded-retry allocator
// idiom: nonzero, unique, retried a fixed number of times before giving
// up rather than looping forever.
func (s *SessionStack) allocateSessionID() (uint16, error) {
	var buf [2]byte
	for range maxIDAllocAttempts {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("mac: generate session id: %w", err)
		}
		id := binary.BigEndian.Uint16(buf[:])
		if id == 0 {
			continue
		}
		if _, exists := s.used[id]; exists {
			continue
		}
		return id, nil
	}
	return 0, ErrDiscriminatorExhausted
}

// New pushes a new session (spec §4.5's new(wait, netstate, channel)).
// wait is the initial Counter; wait == 0 marks an ad-hoc session that
// always succeeds, evicting the current top frame if the stack is at
// capacity.
func (s *SessionStack) New(wait int32, state NetState, channel uint8) (*Session, error) {
	adhoc := wait == 0

	if len(s.frames) >= s.capacity {
		if !adhoc {
			return nil, ErrSessionStackFull
		}
		s.Pop()
	}

	id, err := s.allocateSessionID()
	if err != nil {
		if !adhoc {
			return nil, err
		}
		id = s.nextID
		s.nextID++
	}

	sess := &Session{
		ID:      id,
		Channel: channel,
		State:   state,
		Counter: wait,
	}
	s.used[id] = struct{}{}
	s.frames = append(s.frames, sess)
	return sess, nil
}

// Top returns the current top session, or nil if the stack is empty.
func (s *SessionStack) Top() *Session {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Pop discards the top session.
func (s *SessionStack) Pop() {
	n := len(s.frames)
	if n == 0 {
		return
	}
	top := s.frames[n-1]
	delete(s.used, top.ID)
	s.frames = s.frames[:n-1]
}

// Drop marks the top session inactive but retains its header state
// (channel/subnet/dialog id), per spec §4.5's drop() vs pop() split.
func (s *SessionStack) Drop() {
	if top := s.Top(); top != nil {
		top.State = top.State.Set(NetHold)
	}
}

// Refresh decrements the top session's counter by elapsed ticks, then
// pops scrapped frames off the top until a non-scrapped frame (or an
// empty stack) remains, per spec §4.1 clock_tasks ("refresh the session
// stack"). A frame whose counter has reached zero is not popped here;
// Flush removes those.
func (s *SessionStack) Refresh(elapsed int32) {
	if top := s.Top(); top != nil {
		top.Counter -= elapsed
	}
	for {
		top := s.Top()
		if top == nil {
			return
		}
		if top.State.Has(NetScrap) {
			s.Pop()
			continue
		}
		return
	}
}

// Flush removes all non-holding expired sessions (spec §4.5 flush()).
func (s *SessionStack) Flush() {
	kept := s.frames[:0]
	for _, f := range s.frames {
		if f.Counter <= 0 && !f.State.Has(NetHold) {
			delete(s.used, f.ID)
			continue
		}
		kept = append(kept, f)
	}
	s.frames = kept
}

// Count returns depth-1 (negative on empty), per spec §4.5.
func (s *SessionStack) Count() int { return len(s.frames) - 1 }
