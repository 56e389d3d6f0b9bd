package replset

import "sync"

// Member pairs a MemberConfig with its HeartbeatInfo and a link to the next
// member in configuration order (§3). The member table owns peer Members;
// the self Member is owned by the enclosing ReplSet and is never linked
// into the table's chain, matching the original's "self is matched by
// findById too, but excluded from head()/next() iteration".
type Member struct {
	cfg  MemberConfig
	hb   *HeartbeatInfo
	next *Member

	// generation is bumped by orphanAll; a heartbeat worker compares its
	// captured generation against the table's current one each iteration
	// and exits once they no longer match (§5, §9 "generation-tagged
	// skip").
	generation int
}

// NewMember constructs a Member with a fresh, never-contacted HeartbeatInfo.
func NewMember(cfg MemberConfig) *Member {
	return &Member{cfg: cfg, hb: NewHeartbeatInfo(cfg.ID)}
}

func (m *Member) ID() uint                { return m.cfg.ID }
func (m *Member) Host() HostPort          { return m.cfg.Host }
func (m *Member) Config() MemberConfig    { return m.cfg }
func (m *Member) HeartbeatInfo() *HeartbeatInfo { return m.hb }
func (m *Member) Next() *Member           { return m.next }

// FullName matches the original's Member::fullName() used in log lines.
func (m *Member) FullName() string { return string(m.cfg.Host) }

// MemberTable is the ordered collection of peer members plus lookup by id
// (§4.2). It does not include the self Member.
type MemberTable struct {
	mu         sync.RWMutex
	head_      *Member
	tail       *Member
	generation int
}

// NewMemberTable returns an empty table.
func NewMemberTable() *MemberTable {
	return &MemberTable{}
}

// Head returns the first member in configuration order, or nil if empty.
func (t *MemberTable) Head() *Member {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.head_
}

// Push appends m to the end of the active chain, tagging it with the
// table's current generation.
func (t *MemberTable) Push(m *Member) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m.next = nil
	m.generation = t.generation
	if t.tail == nil {
		t.head_ = m
		t.tail = m
		return
	}
	t.tail.next = m
	t.tail = m
}

// FindByID returns the peer member with the given id, or nil. Self is not
// in this table; callers must check self separately, exactly as §4.2
// documents ("self is matched by findById too" at the ReplSet level, not
// the table level).
func (t *MemberTable) FindByID(id uint) *Member {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for m := t.head_; m != nil; m = m.next {
		if m.cfg.ID == id {
			return m
		}
	}
	return nil
}

// Each iterates every peer member under a read lock. The callback must not
// call back into the table.
func (t *MemberTable) Each(fn func(*Member)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for m := t.head_; m != nil; m = m.next {
		fn(m)
	}
}

// Len returns the number of peer members currently in the table.
func (t *MemberTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for m := t.head_; m != nil; m = m.next {
		n++
	}
	return n
}

// OrphanAll detaches every peer from the active chain and bumps the
// generation, so any heartbeat worker still iterating against a captured
// member notices the mismatch and exits (§3 Lifecycle, §8 "every started
// heartbeat worker for a pre-orphan peer terminates within one poll
// interval"). It returns the detached members so the caller can join their
// worker goroutines.
func (t *MemberTable) OrphanAll() []*Member {
	t.mu.Lock()
	defer t.mu.Unlock()

	var orphaned []*Member
	for m := t.head_; m != nil; m = m.next {
		orphaned = append(orphaned, m)
	}
	t.head_ = nil
	t.tail = nil
	t.generation++
	return orphaned
}

// Generation returns the table's current generation counter.
func (t *MemberTable) Generation() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// Orphaned reports whether m's captured generation is behind the table's
// current one, i.e. whether m has been detached by a reconfiguration.
func (t *MemberTable) Orphaned(m *Member) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return m.generation != t.generation
}
