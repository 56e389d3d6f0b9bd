package replset

import "sync"

// StateSnapshot is the atomic (state, primary) pair §4.1 guarantees readers
// never observe torn: if State is Primary, Primary identifies self (encoded
// here as PrimaryIsSelf); if State is Secondary/Recovering, Primary may be
// nil; if State is Fatal, Primary is always nil.
type StateSnapshot struct {
	State        MemberState
	Primary      *Member // nil when no believed primary, or when it is self
	PrimaryIsSelf bool
}

// StateBox is the only mutable source of truth for "who do I believe is
// primary right now" (§4.1). Writers serialize through the ReplSet lock;
// readers call Get and receive a lock-free, non-torn snapshot.
type StateBox struct {
	mu    sync.RWMutex
	state MemberState
	primary *Member
	primaryIsSelf bool
}

// NewStateBox returns a box initialized to Startup with no believed primary.
func NewStateBox() *StateBox {
	return &StateBox{state: Startup}
}

// Get returns the current snapshot.
func (b *StateBox) Get() StateSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return StateSnapshot{State: b.state, Primary: b.primary, PrimaryIsSelf: b.primaryIsSelf}
}

// Set replaces both fields as one atomic publish. No callbacks fire from
// inside Set, matching §4.1's guarantee.
func (b *StateBox) Set(state MemberState, primary *Member, primaryIsSelf bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.primary = primary
	b.primaryIsSelf = primaryIsSelf
}

// SetSelfPrimary sets (Primary, self).
func (b *StateBox) SetSelfPrimary() {
	b.Set(Primary, nil, true)
}

// SetOtherPrimary preserves the local state but sets primary to m (or
// clears it if m is nil).
func (b *StateBox) SetOtherPrimary(m *Member) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.primary = m
	b.primaryIsSelf = false
}

// Change preserves primary if it is self and the new state is still
// primary-compatible; otherwise it clears primary. This mirrors the
// original's MinuteBox::change semantics used on ad hoc state transitions
// that are not specifically "note a remote is primary" or "elect self".
func (b *StateBox) Change(state MemberState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.primaryIsSelf && state == Primary {
		b.state = state
		return
	}
	b.state = state
	b.primary = nil
	b.primaryIsSelf = false
}
