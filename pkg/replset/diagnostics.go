package replset

import "time"

// MemberSnapshot is a read-only, point-in-time view of one peer member,
// combining its configuration with its latest heartbeat record (§6
// Diagnostics).
type MemberSnapshot struct {
	ID               uint
	Host             HostPort
	State            MemberState
	Health           float64
	Uptime           time.Duration
	LastHeartbeat    time.Time
	LastHeartbeatMsg string
	OpTime           OpTime
	ConfigVersion    int
	Votes            uint
	Priority         float64
	ArbiterOnly      bool
	Hidden           bool
}

// Snapshot is the full, read-only view of a ReplSet's believed membership
// and election state, intended for an HTTP status endpoint or log dump —
// never for making decisions (§6: "diagnostics never feed back into the
// decision procedure").
type Snapshot struct {
	Set     string
	Version int

	SelfID    uint
	SelfHost  HostPort
	SelfState MemberState
	SelfMsg   string

	PrimaryIsSelf bool
	PrimaryID     int // -1 when no believed primary
	PrimaryHost   HostPort

	Members []MemberSnapshot
}

// Snapshot assembles a consistent read-only view of rs for diagnostics. It
// takes rs.mu briefly to copy the self/config fields, then reads each
// member's HeartbeatInfo independently (each under its own lock), matching
// the "single writer per peer, many readers" discipline documented on
// HeartbeatInfo.
func (rs *ReplSet) Snapshot() Snapshot {
	rs.mu.RLock()
	cfg := rs.cfg
	self := rs.self
	hbmsg := rs.hbmsg
	table := rs.members
	rs.mu.RUnlock()

	snap := rs.box.Get()

	out := Snapshot{
		PrimaryID:   -1,
		SelfMsg:     hbmsg,
		SelfState:   snap.State,
		PrimaryIsSelf: snap.PrimaryIsSelf,
	}
	if cfg != nil {
		out.Set = cfg.ID
		out.Version = cfg.Version
	}
	if self != nil {
		out.SelfID = self.ID()
		out.SelfHost = self.Host()
	}
	if snap.PrimaryIsSelf {
		out.PrimaryID = int(out.SelfID)
		out.PrimaryHost = out.SelfHost
	} else if snap.Primary != nil {
		out.PrimaryID = int(snap.Primary.ID())
		out.PrimaryHost = snap.Primary.Host()
	}

	if table != nil {
		table.Each(func(m *Member) {
			hb := m.HeartbeatInfo().snapshot()
			cfg := m.Config()
			ms := MemberSnapshot{
				ID:               m.ID(),
				Host:             m.Host(),
				State:            hb.hbstate,
				Health:           hb.health,
				LastHeartbeat:    hb.lastHeartbeat,
				LastHeartbeatMsg: hb.lastHeartbeatMsg,
				OpTime:           hb.opTime,
				ConfigVersion:    m.HeartbeatInfo().ConfigVersion(),
				Votes:            cfg.Votes,
				Priority:         cfg.Priority,
				ArbiterOnly:      cfg.ArbiterOnly,
				Hidden:           cfg.Hidden,
			}
			if !hb.upSince.IsZero() {
				ms.Uptime = time.Since(hb.upSince)
			}
			out.Members = append(out.Members, ms)
		})
	}

	return out
}
