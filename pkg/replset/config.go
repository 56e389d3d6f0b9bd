package replset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// HostPort is a "host:port" address, the unit the original's HostAndPort
// represented. It is comparable and usable as a map key.
type HostPort string

// NewHostPort validates and constructs a HostPort from "host:port".
func NewHostPort(s string) (HostPort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("replset: empty host:port")
	}
	host, port, err := splitHostPort(s)
	if err != nil {
		return "", err
	}
	return HostPort(host + ":" + port), nil
}

func splitHostPort(s string) (host, port string, err error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return "", "", fmt.Errorf("replset: bad host:port %q", s)
	}
	host = s[:idx]
	port = s[idx+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", fmt.Errorf("replset: bad port in %q: %w", s, err)
	}
	return host, port, nil
}

func (h HostPort) String() string { return string(h) }

// SelfChecker reports whether a HostPort identifies the local process. It is
// swapped out in tests so a whole set can be simulated from one binary
// without binding real sockets.
type SelfChecker interface {
	IsSelf(h HostPort) bool
}

// SelfCheckerFunc adapts a function to a SelfChecker.
type SelfCheckerFunc func(HostPort) bool

func (f SelfCheckerFunc) IsSelf(h HostPort) bool { return f(h) }

// MemberConfig is the immutable per-epoch description of one replica-set
// member. Defaults (votes=1, priority=1.0, arbiterOnly=false, hidden=false)
// match the original's ReplSetConfig::MemberCfg parsing in rs.cpp and are
// applied by DecodeConfigDocument, not by the zero value of this struct.
type MemberConfig struct {
	ID          uint     `json:"_id"`
	Host        HostPort `json:"host"`
	Votes       uint     `json:"votes"`
	Priority    float64  `json:"priority"`
	ArbiterOnly bool     `json:"arbiterOnly"`
	Hidden      bool     `json:"hidden"`
}

// UnmarshalJSON applies the §6 document defaults (votes=1, priority=1.0) to
// fields the document omits, the way the original's config-document parsing
// in rs.cpp treats an absent field as "use the default", not as zero.
func (m *MemberConfig) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID          uint     `json:"_id"`
		Host        HostPort `json:"host"`
		Votes       *uint    `json:"votes"`
		Priority    *float64 `json:"priority"`
		ArbiterOnly bool     `json:"arbiterOnly"`
		Hidden      bool     `json:"hidden"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.ID = a.ID
	m.Host = a.Host
	m.ArbiterOnly = a.ArbiterOnly
	m.Hidden = a.Hidden
	if a.Votes != nil {
		m.Votes = *a.Votes
	} else {
		m.Votes = 1
	}
	if a.Priority != nil {
		m.Priority = *a.Priority
	} else {
		m.Priority = 1.0
	}
	return nil
}

// PotentiallyHot reports whether a member in this configuration, combined
// with the given runtime state, is eligible to attempt self-election
// (§4.4 election policy, precondition 3; §9 priority-zero is a hard gate).
func (m MemberConfig) PotentiallyHot(state MemberState) bool {
	if m.ArbiterOnly || m.Priority <= 0 {
		return false
	}
	switch state {
	case Secondary, Recovering, Startup2:
		return true
	default:
		return false
	}
}

// ReplSetConfig is the versioned configuration document (§3, §6).
type ReplSetConfig struct {
	ID      string         `json:"_id"`
	Version int            `json:"version"`
	Members []MemberConfig `json:"members"`
}

// Ok reports whether this configuration is well-formed enough to install:
// version >= 1, a non-empty set name, unique member ids, and exactly one
// member (at most) claiming any given id.
func (c *ReplSetConfig) Ok() bool {
	if c == nil {
		return false
	}
	if c.Version < 1 || c.ID == "" || len(c.Members) == 0 {
		return false
	}
	seen := make(map[uint]bool, len(c.Members))
	for _, m := range c.Members {
		if seen[m.ID] {
			return false
		}
		seen[m.ID] = true
		if m.Host == "" {
			return false
		}
	}
	return true
}

// Empty reports whether this configuration represents "never initialized
// locally" — the loader's signal to keep retrying rather than install
// anything.
func (c *ReplSetConfig) Empty() bool {
	return c == nil || (c.Version == 0 && len(c.Members) == 0)
}

// TotalVotes sums the configured votes of every member, the denominator for
// majority-visible computations.
func (c *ReplSetConfig) TotalVotes() uint {
	var total uint
	for _, m := range c.Members {
		total += m.Votes
	}
	return total
}

// SelfMember returns the index of the member satisfying isSelf, and how many
// members did (0, 1, or more — more than 1 is the ErrConfigConflict case).
func (c *ReplSetConfig) SelfMember(self SelfChecker) (idx int, count int) {
	idx = -1
	for i, m := range c.Members {
		if self.IsSelf(m.Host) {
			count++
			if idx == -1 {
				idx = i
			}
		}
	}
	return idx, count
}

