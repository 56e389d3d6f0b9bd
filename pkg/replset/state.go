package replset

// MemberState is the operational state of a replica-set member, reported by
// that member itself (self) or by a peer's heartbeat response (hbstate).
type MemberState int

const (
	Startup MemberState = iota
	Primary
	Secondary
	Recovering
	Fatal
	Startup2
	Arbiter
	Down
)

// String matches the teacher's NodeState/NodeRole String() convention
// (pkg/replication/replica_set.go) and the original's stateAsStr.
func (s MemberState) String() string {
	switch s {
	case Startup:
		return "STARTUP"
	case Primary:
		return "PRIMARY"
	case Secondary:
		return "SECONDARY"
	case Recovering:
		return "RECOVERING"
	case Fatal:
		return "FATAL"
	case Startup2:
		return "STARTUP2"
	case Arbiter:
		return "ARBITER"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Primary reports whether this state is the writable-leader state.
func (s MemberState) IsPrimary() bool { return s == Primary }

// Secondary reports whether this state is a normal non-primary data member.
func (s MemberState) IsSecondary() bool { return s == Secondary }

// CanVote reports whether a member in this state participates in quorum
// counting at all (a Down member contributes nothing, even if still
// configured with votes).
func (s MemberState) CanVote() bool { return s != Down && s != Fatal }
