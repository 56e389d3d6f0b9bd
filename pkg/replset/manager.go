package replset

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type eventKind int

const (
	eventCheckNewState eventKind = iota
	eventNewConfig
	eventRequeue
	eventStepDown
)

type event struct {
	kind eventKind
	doc  *ReplSetConfig // set for eventNewConfig from a peer (msgReceivedNewConfig)
}

// Manager is the single-threaded cooperative event loop described in §4.5.
// It consumes events from a FIFO queue; each event is handled to completion
// before the next is dequeued, so no two manager events ever run
// concurrently, even though heartbeat workers and elections run on their
// own goroutines outside it.
type Manager struct {
	rs *ReplSet

	queue   chan event
	done    chan struct{}
	stopped chan struct{}

	busyWithElectSelf bool
}

// NewManager constructs a Manager bound to rs. The queue is buffered so
// heartbeat workers posting CheckNewState never block on a slow manager
// tick (§4.3 "post a check-new-state event to the manager queue").
func NewManager(rs *ReplSet) *Manager {
	return &Manager{
		rs:      rs,
		queue:   make(chan event, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// enqueue posts an event to the manager's queue without blocking the
// caller's event handling (heartbeat workers, the config loader, and the
// periodic tick all call this).
func (m *Manager) enqueue(e event) {
	select {
	case m.queue <- e:
	case <-m.done:
	default:
		// Queue is saturated; a CheckNewState will be reconsidered on the
		// next tick regardless, so dropping this one is safe — it never
		// loses a configuration document, only a liveness re-evaluation.
		if e.kind != eventCheckNewState {
			m.queue <- e
		}
	}
}

func (m *Manager) stop() {
	close(m.done)
	<-m.stopped
}

func (m *Manager) run() {
	defer m.rs.wg.Done()
	defer close(m.stopped)
	for {
		select {
		case <-m.done:
			return
		case e := <-m.queue:
			m.handle(e)
		}
	}
}

func (m *Manager) handle(e event) {
	switch e.kind {
	case eventCheckNewState, eventRequeue:
		m.checkNewState()
	case eventNewConfig:
		m.msgReceivedNewConfig(e.doc)
	case eventStepDown:
		m.stepDown()
	}
}

// stepDown relinquishes primary if we currently believe we are it; a no-op
// from any other state (§4.5's relinquish already only applies to primary).
func (m *Manager) stepDown() {
	if !m.rs.IsPrimary() {
		return
	}
	m.rs.relinquish()
}

// checkNewState is the decision procedure in §4.5.
func (m *Manager) checkNewState() {
	if m.busyWithElectSelf {
		return
	}

	rs := m.rs
	snap := rs.box.Get()
	var p *Member
	if !snap.PrimaryIsSelf {
		p = snap.Primary
	}

	// Invalidate p: if believed primary is a peer and it's no longer up or
	// no longer reports primary, drop the belief.
	if p != nil {
		hb := p.HeartbeatInfo()
		if !hb.Up() || !hb.State().IsPrimary() {
			p = nil
			rs.box.SetOtherPrimary(nil)
		}
	}

	p2, err := m.findOtherPrimary()
	if err != nil {
		if errors.Is(err, ErrTwoMasters) {
			log.Warn("replset: DIAG two masters observed, waiting for things to settle")
			return
		}
		log.WithError(err).Error("replset: unexpected error scanning for other primary")
		return
	}

	switch {
	case snap.PrimaryIsSelf && p2 == nil:
		// we are already primary; stay primary unless we can't see a
		// majority.
		if !rs.elect.AMajoritySeemsToBeUp() {
			log.Warn("replset: can't see a majority of the set, relinquishing primary")
			rs.relinquish()
		}
		return

	case snap.PrimaryIsSelf && p2 != nil:
		// we thought we were primary, yet now someone else thinks they are.
		if !rs.elect.AMajoritySeemsToBeUp() {
			rs.noteARemoteIsPrimary(p2)
		}
		// else: ignore for now, keep thinking we are master; could just be
		// timing (we poll every couple seconds).
		return

	case p == nil && p2 != nil:
		rs.noteARemoteIsPrimary(p2)
		return

	case p != nil && p2 == p:
		// we thought the same; all set.
		return

	case p != nil && p2 == nil:
		// keep believing p; the liveness check above will invalidate it if
		// needed on a future tick.
		return

	case p != nil && p2 != nil:
		// switch primary from the old remote belief to the new one.
		log.WithFields(log.Fields{"old": p.FullName(), "new": p2.FullName()}).
			Warn("replset: switching believed primary between two peers")
		rs.noteARemoteIsPrimary(p2)
		return
	}

	// p == nil && p2 == nil: didn't find anyone who wants to be primary.
	if !rs.iAmPotentiallyHot() {
		return
	}
	if !rs.elect.AMajoritySeemsToBeUp() {
		log.Debug("replset: can't see a majority, won't consider electing self")
		return
	}
	if !rs.elect.ReadyToElect() {
		log.Debug("replset: still within post-stepdown cooldown, won't consider electing self")
		return
	}

	rs.sethbmsg("")
	m.busyWithElectSelf = true
	defer func() { m.busyWithElectSelf = false }()

	err = rs.elect.ElectSelf(context.Background())
	if err == nil {
		return
	}
	if errors.Is(err, ErrElectionRetry) {
		m.enqueue(event{kind: eventRequeue})
		return
	}
	log.WithError(err).Error("replset: unexpected error during electSelf")
}

// findOtherPrimary scans peers for any that report state Primary and are
// up. Two such peers raise ErrTwoMasters (§4.5).
func (m *Manager) findOtherPrimary() (*Member, error) {
	var found *Member
	var twoMasters bool
	m.rs.members.Each(func(mem *Member) {
		hb := mem.HeartbeatInfo()
		if hb.State().IsPrimary() && hb.Up() {
			if found != nil {
				twoMasters = true
				return
			}
			found = mem
		}
	})
	if twoMasters {
		return nil, ErrTwoMasters
	}
	return found, nil
}

// msgReceivedNewConfig handles a configuration document received from a
// peer (§4.7(b)): accept only if doc.Version > currentConfig.Version.
func (m *Manager) msgReceivedNewConfig(doc *ReplSetConfig) {
	rs := m.rs
	if doc == nil {
		return
	}
	cur := rs.config()
	if cur != nil && doc.Version <= cur.Version {
		log.WithFields(log.Fields{"have": cur.Version, "got": doc.Version}).
			Info("replset: dropping configuration, not newer than current")
		return
	}
	if err := rs.haveNewConfig(doc); err != nil {
		log.WithError(err).Error("replset: failed to install configuration received from peer")
	}
}
