package replset

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// haveNewConfig is the administrative reconfiguration entry point (§4.7(a)):
// validate, persist (via the loader's persister is the caller's concern —
// this function only installs), then initFromConfig.
func (rs *ReplSet) haveNewConfig(cfg *ReplSetConfig) error {
	if !cfg.Ok() {
		return fmt.Errorf("replset: %w: version=%d members=%d", ErrConfigInvalid, cfg.Version, len(cfg.Members))
	}
	cur := rs.config()
	if cur != nil && cfg.Version < cur.Version {
		return fmt.Errorf("replset: %w: have %d, got %d", ErrStaleConfig, cur.Version, cfg.Version)
	}
	return rs.initFromConfig(cfg)
}

// initFromConfig installs cfg (§4.6 step 3, §4.7). It returns
// ErrSelfNotInConfig if self does not appear (caller retries), wraps
// ErrConfigConflict if self appears more than once, and otherwise installs
// the configuration, orphaning old peer members, stopping their heartbeat
// workers, and rebinding the StateBox's believed primary across the
// transition if that member's id survives into the new config.
func (rs *ReplSet) initFromConfig(cfg *ReplSetConfig) error {
	if !cfg.Ok() {
		return fmt.Errorf("replset: %w", ErrConfigInvalid)
	}

	selfIdx, selfCount := cfg.SelfMember(rs.opts.Self)
	if selfCount == 0 {
		log.WithField("config", cfg.ID).Warn("replset: can't find self in the replica set configuration")
		return ErrSelfNotInConfig
	}
	if selfCount > 1 {
		return fmt.Errorf("replset: %w", ErrConfigConflict)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Remember the old primary's id so we can rebind the belief across a
	// compatible reconfig.
	oldPrimaryID := -1
	if snap := rs.box.Get(); snap.PrimaryIsSelf {
		oldPrimaryID = int(rs.selfConfigLocked().ID)
	} else if snap.Primary != nil {
		oldPrimaryID = int(snap.Primary.ID())
	}

	// Orphan all existing peer members and stop their heartbeat workers.
	orphaned := rs.members.OrphanAll()
	rs.stopWorkersFor(orphaned)

	// forgetPrimary(): if currently primary, relinquish; else clear.
	if rs.box.Get().PrimaryIsSelf {
		rs.box.Change(Recovering)
		rs.elect.ArmCooldown()
	} else {
		rs.box.SetOtherPrimary(nil)
	}

	newTable := NewMemberTable()
	var self *Member
	for i, mc := range cfg.Members {
		if i == selfIdx {
			self = NewMember(mc)
			if int(mc.ID) == oldPrimaryID {
				rs.box.Set(Primary, nil, true)
			}
			continue
		}
		m := NewMember(mc)
		newTable.Push(m)
		if int(mc.ID) == oldPrimaryID {
			rs.box.SetOtherPrimary(m)
		}
	}

	rs.self = self
	rs.members = newTable
	rs.oldCfgVersion = 0
	if rs.cfg != nil {
		rs.oldCfgVersion = rs.cfg.Version
	}
	rs.cfg = cfg

	if rs.State() == Startup {
		rs.box.Change(Startup2)
	}

	rs.startWorkersLocked()

	log.WithFields(log.Fields{"set": cfg.ID, "version": cfg.Version, "members": len(cfg.Members)}).
		Info("replset: installed new configuration")
	return nil
}

func (rs *ReplSet) selfConfigLocked() MemberConfig {
	if rs.self == nil {
		return MemberConfig{}
	}
	return rs.self.cfg
}
