package replset

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options configures a ReplSet at construction time (§3, §5 defaults).
type Options struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	TickInterval      time.Duration

	HeartbeatTransport HeartbeatTransport
	ElectionTransport  ElectionTransport

	// Self identifies which HostPort in an installed configuration is us.
	Self SelfChecker
}

// DefaultOptions matches §5's stated defaults (heartbeat ~2s).
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 2 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		TickInterval:      1 * time.Second,
	}
}

// ReplSet is the per-node replica-set object (§1): its state box, member
// table, heartbeat info, and configuration, wired to a Manager and an
// Election module.
type ReplSet struct {
	opts Options

	mu      sync.RWMutex
	cfg     *ReplSetConfig
	self    *Member
	oldCfgVersion int

	members *MemberTable
	box     *StateBox
	manager *Manager
	elect   *Election
	optimes *OpTimeGenerator

	workers   map[uint]*HeartbeatWorker
	workersMu sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
	hbmsg  string
}

// New constructs an unconfigured ReplSet. Call the ConfigLoader to populate
// it from a configuration document before Start.
func New(opts Options) *ReplSet {
	rs := &ReplSet{
		opts:    opts,
		members: NewMemberTable(),
		box:     NewStateBox(),
		optimes: &OpTimeGenerator{},
		workers: make(map[uint]*HeartbeatWorker),
		stopCh:  make(chan struct{}),
	}
	rs.manager = NewManager(rs)
	rs.elect = NewElection(rs, opts.ElectionTransport)
	return rs
}

// Start launches the manager loop and, if a configuration is already
// installed, the heartbeat workers and periodic tick goroutine.
func (rs *ReplSet) Start() error {
	rs.mu.RLock()
	configured := rs.cfg != nil
	rs.mu.RUnlock()

	rs.wg.Add(1)
	go rs.manager.run()

	if configured {
		rs.manager.enqueue(event{kind: eventNewConfig})
	}

	rs.wg.Add(1)
	go rs.tickLoop()

	return nil
}

// Stop signals the manager, tick loop, and every heartbeat worker to exit,
// and waits for them to do so.
func (rs *ReplSet) Stop() error {
	close(rs.stopCh)
	rs.manager.stop()
	rs.stopAllWorkers()
	rs.wg.Wait()
	return nil
}

func (rs *ReplSet) tickLoop() {
	defer rs.wg.Done()
	interval := rs.opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rs.stopCh:
			return
		case <-ticker.C:
			rs.manager.enqueue(event{kind: eventCheckNewState})
		}
	}
}

// config returns the currently installed configuration (read lock).
func (rs *ReplSet) config() *ReplSetConfig {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.cfg
}

// Config returns the currently installed configuration, or nil before one
// has been loaded. Exposed for callers outside this package (e.g.
// pkg/replication's write-concern acknowledgment counting) that need to
// know the voting membership without reaching into ReplSet internals.
func (rs *ReplSet) Config() *ReplSetConfig { return rs.config() }

// selfConfig returns self's own MemberConfig.
func (rs *ReplSet) selfConfig() MemberConfig {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.self == nil {
		return MemberConfig{}
	}
	return rs.self.cfg
}

// Self returns the self Member, or nil if unconfigured.
func (rs *ReplSet) Self() *Member {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.self
}

// MemberTable returns the peer member table.
func (rs *ReplSet) MemberTable() *MemberTable { return rs.members }

// StateBox returns the state box.
func (rs *ReplSet) StateBox() *StateBox { return rs.box }

// Election returns the election module.
func (rs *ReplSet) Election() *Election { return rs.elect }

// State returns the current believed member state (convenience wrapper
// over StateBox.Get()).
func (rs *ReplSet) State() MemberState { return rs.box.Get().State }

// IsPrimary reports whether this node currently believes itself primary.
func (rs *ReplSet) IsPrimary() bool {
	snap := rs.box.Get()
	return snap.State == Primary && snap.PrimaryIsSelf
}

// SelfOpTime returns self's own last-written OpTime, tracked via the
// member's own HeartbeatInfo exactly like peers' progress is (§3: Member
// pairs a MemberConfig with its HeartbeatInfo, and that pairing applies to
// self too even though self is excluded from the peer table's iteration).
func (rs *ReplSet) SelfOpTime() OpTime {
	rs.mu.RLock()
	self := rs.self
	rs.mu.RUnlock()
	if self == nil {
		return NullOpTime
	}
	return self.HeartbeatInfo().OpTime()
}

// RecordSelfWrite advances self's own OpTime, called by the write path
// (out of scope here) each time an operation is durably applied locally.
// It is exposed so pkg/replication's write-concern acknowledgment counting
// can be grounded on the same Member/HeartbeatInfo bookkeeping the Manager
// already uses for peers, rather than a second parallel tracking scheme.
func (rs *ReplSet) RecordSelfWrite() OpTime {
	ot := rs.optimes.Next()
	rs.mu.RLock()
	self := rs.self
	rs.mu.RUnlock()
	if self != nil {
		self.HeartbeatInfo().RecordSuccess(time.Now(), rs.State(), ot, rs.configVersionLocked(), "")
	}
	return ot
}

func (rs *ReplSet) configVersionLocked() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.cfg == nil {
		return 0
	}
	return rs.cfg.Version
}

// sethbmsg records a short status message, mirroring rs->sethbmsg in the
// original; surfaced through diagnostics.
func (rs *ReplSet) sethbmsg(msg string) {
	rs.mu.Lock()
	rs.hbmsg = msg
	rs.mu.Unlock()
}

// iAmArbiterOnly reports whether self's configuration marks it arbiter-only.
func (rs *ReplSet) iAmArbiterOnly() bool {
	return rs.selfConfig().ArbiterOnly
}

// iAmPotentiallyHot gates self-election eligibility (§4.4 precondition 3,
// §9 priority-zero is a hard gate).
func (rs *ReplSet) iAmPotentiallyHot() bool {
	return rs.selfConfig().PotentiallyHot(rs.State())
}

// assumePrimary publishes (Primary, self) via the StateBox. §5's ordering
// guarantee names a third step here ("assumePrimary takes DB lock and
// synchronizes with oplog") that belongs to the out-of-scope write path;
// this package's contribution ends at the StateBox publish, which readers
// may treat as happening-before that synchronization completes.
func (rs *ReplSet) assumePrimary() {
	rs.box.SetSelfPrimary()
	rs.sethbmsg("")
	log.WithField("self", rs.selfConfig().Host).Info("replset: became primary")
}

// relinquish transitions Primary -> Recovering and arms the step-down
// cooldown (§4.5).
func (rs *ReplSet) relinquish() {
	rs.box.Change(Recovering)
	rs.elect.ArmCooldown()
	log.Warn("replset: relinquishing primary")
}

// noteARemoteIsPrimary sets state to Arbiter (if self is arbiter-only) or
// Recovering, and StateBox.primary to m (§4.5).
func (rs *ReplSet) noteARemoteIsPrimary(m *Member) {
	if snap := rs.box.Get(); snap.Primary == m && !snap.PrimaryIsSelf {
		return
	}
	if self := rs.Self(); self != nil {
		self.HeartbeatInfo().ClearMessage()
	}
	state := Recovering
	if rs.iAmArbiterOnly() {
		state = Arbiter
	}
	rs.box.Set(state, m, false)
	log.WithField("primary", m.FullName()).Info("replset: noting a remote is primary")
}

// RequestStepDown asks the manager to relinquish primary on its next event
// cycle. It is a no-op if we are not currently primary. Posted through the
// manager queue rather than called directly so it serializes with every
// other decision the manager makes (§4.5: no two manager events ever run
// concurrently).
func (rs *ReplSet) RequestStepDown() {
	rs.manager.enqueue(event{kind: eventStepDown})
}

// ReceiveConfig hands a configuration document to the manager as if it had
// arrived from a peer (§4.7(b)): accepted only if its version is newer than
// whatever is currently installed.
func (rs *ReplSet) ReceiveConfig(doc *ReplSetConfig) {
	rs.manager.enqueue(event{kind: eventNewConfig, doc: doc})
}

func (rs *ReplSet) fatal(reason string, err error) {
	rs.box.Set(Fatal, nil, false)
	log.WithError(err).WithField("reason", reason).Error("replset: entering fatal state")
}

