package replset

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// stepDownCooldown is the duration relinquish() arms before self may again
// attempt election (§4.5 relinquish side effect).
const stepDownCooldown = 60 * time.Second

// electionTimeout bounds how long electSelf waits for the vote round to
// complete before giving up and returning ErrElectionRetry (§5 defaults:
// "election per-vote ~30s").
const electionTimeout = 30 * time.Second

// Election computes majority visibility and runs the self-nomination
// protocol (§4.4).
type Election struct {
	rs        *ReplSet
	transport ElectionTransport

	mu          sync.Mutex
	steppedDown time.Time
	round       uint64

	now func() time.Time
}

// NewElection constructs the election module for rs, using transport to
// solicit votes from peers.
func NewElection(rs *ReplSet, transport ElectionTransport) *Election {
	return &Election{rs: rs, transport: transport, now: time.Now}
}

// SteppedDown returns the earliest wall-clock time at which self may again
// seek primary.
func (e *Election) SteppedDown() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steppedDown
}

// ArmCooldown sets steppedDown to now + 60s, called by relinquish().
func (e *Election) ArmCooldown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steppedDown = e.now().Add(stepDownCooldown)
}

// ReadyToElect reports now >= steppedDown (election policy precondition 4).
func (e *Election) ReadyToElect() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.now().Before(e.steppedDown)
}

// AMajoritySeemsToBeUp reports whether the sum of votes of self plus every
// up peer strictly exceeds half the total configured votes (§4.4).
func (e *Election) AMajoritySeemsToBeUp() bool {
	total := e.rs.config().TotalVotes()
	if total == 0 {
		return false
	}

	var up uint = e.rs.selfConfig().Votes
	e.rs.members.Each(func(m *Member) {
		if m.HeartbeatInfo().Up() {
			up += m.cfg.Votes
		}
	})

	return uint64(up)*2 > uint64(total)
}

// ElectSelf runs the vote-solicitation protocol: freshness check against
// every up peer, then a vote round. On success it sets self primary via the
// StateBox. It returns ErrElectionRetry for a retriable failure
// (RetryAfterSleep) and any other error for an irrecoverable one.
//
// Callers must have already verified the four preconditions in §4.4 before
// invoking this (no believed primary, majority visible, self potentially
// hot, now >= steppedDown) — ElectSelf does not re-check them, matching the
// original's electSelf() which trusts msgCheckNewState's gating.
func (e *Election) ElectSelf(ctx context.Context) error {
	e.mu.Lock()
	e.round++
	round := e.round
	e.mu.Unlock()

	selfID := e.rs.selfConfig().ID
	selfOpTime := e.rs.SelfOpTime()
	cfgVersion := e.rs.config().Version

	ctx, cancel := context.WithTimeout(ctx, electionTimeout)
	defer cancel()

	vetoes := 0
	var peers []*Member
	e.rs.members.Each(func(m *Member) {
		if m.HeartbeatInfo().Up() {
			peers = append(peers, m)
		}
	})

	if len(peers) > 0 && e.transport == nil {
		log.Warn("replset: no election transport configured, can't solicit votes from up peers")
		return ErrElectionRetry
	}

	for _, m := range peers {
		resp, err := e.transport.Freshness(ctx, m.Host(), FreshnessRequest{
			CandidateID: selfID,
			OpTime:      selfOpTime,
			CfgVersion:  cfgVersion,
		})
		if err != nil {
			log.WithError(err).WithField("peer", m.FullName()).Warn("replset: freshness check failed, treating as no veto")
			continue
		}
		if resp.Veto {
			vetoes++
			log.WithFields(log.Fields{"peer": m.FullName(), "reason": resp.Reason}).Warn("replset: election vetoed")
		}
	}
	if vetoes > 0 {
		return ErrElectionRetry
	}

	votes := int(e.rs.selfConfig().Votes) // vote for self
	for _, m := range peers {
		resp, err := e.transport.Elect(ctx, m.Host(), ElectRequest{
			CandidateID: selfID,
			CfgVersion:  cfgVersion,
			Round:       round,
		})
		if err != nil {
			log.WithError(err).WithField("peer", m.FullName()).Warn("replset: elect RPC failed")
			continue
		}
		if resp.Vote > 0 {
			votes += int(m.cfg.Votes)
		} else {
			votes -= int(m.cfg.Votes)
		}
	}

	total := int(e.rs.config().TotalVotes())
	if votes*2 <= total {
		log.WithFields(log.Fields{"votes": votes, "total": total}).Warn("replset: election did not win a majority")
		return ErrElectionRetry
	}

	log.WithFields(log.Fields{"votes": votes, "total": total, "round": round}).Info("replset: election won, becoming primary")
	e.rs.assumePrimary()
	return nil
}
