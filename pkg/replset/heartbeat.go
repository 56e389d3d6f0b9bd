package replset

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// heartbeatBackoffCap bounds the backoff applied after consecutive
// heartbeat failures (§4.3 "bounded backoff").
const heartbeatBackoffCap = 10 * time.Second

// HeartbeatWorker is the long-lived goroutine assigned to one peer member
// (§4.4... §4.3). It repeatedly probes its peer, writes the result into the
// peer's HeartbeatInfo, and posts CheckNewState to the manager whenever the
// update is health-affecting. It terminates only when its member is
// orphaned by a reconfiguration.
type HeartbeatWorker struct {
	rs        *ReplSet
	member    *Member
	table     *MemberTable // the table this member belonged to when started
	transport HeartbeatTransport

	// Snapshot of the installed configuration at the moment this worker was
	// started. reconfig.go always recreates every worker when the
	// configuration changes (OrphanAll orphans the whole table), so this
	// never goes stale for the worker's lifetime. Reading it this way,
	// instead of calling rs.config()/rs.selfConfig() from the probe loop,
	// avoids re-entering rs.mu from a goroutine that initFromConfig's
	// stopWorkersFor may be blocked waiting on while holding that same lock.
	setName    string
	selfID     uint
	cfgVersion int

	interval time.Duration
	timeout  time.Duration

	stopCh chan struct{}
	done   chan struct{}
}

func newHeartbeatWorker(rs *ReplSet, m *Member, table *MemberTable, setName string, selfID uint, cfgVersion int) *HeartbeatWorker {
	interval := rs.opts.HeartbeatInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	timeout := rs.opts.HeartbeatTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HeartbeatWorker{
		rs:         rs,
		member:     m,
		table:      table,
		transport:  rs.opts.HeartbeatTransport,
		setName:    setName,
		selfID:     selfID,
		cfgVersion: cfgVersion,
		interval:   interval,
		timeout:    timeout,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (w *HeartbeatWorker) start() {
	go w.run()
}

func (w *HeartbeatWorker) stop() {
	close(w.stopCh)
	<-w.done
}

func (w *HeartbeatWorker) run() {
	defer close(w.done)

	failures := 0
	for {
		if w.table.Orphaned(w.member) {
			return
		}

		changed := w.probeOnce()
		if changed {
			w.rs.manager.enqueue(event{kind: eventCheckNewState})
		}

		delay := w.interval
		if !w.member.HeartbeatInfo().Up() {
			failures++
			backoff := w.interval * time.Duration(1<<uintMin(failures, 4))
			if backoff > heartbeatBackoffCap {
				backoff = heartbeatBackoffCap
			}
			delay = backoff
		} else {
			failures = 0
		}

		select {
		case <-w.stopCh:
			return
		case <-time.After(delay):
		}
	}
}

func uintMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// probeOnce issues one heartbeat RPC and records the result. It never
// returns an error: every network/decode failure is local, degrading
// health instead of propagating (§4.3 failure semantics). A nil transport
// (no HeartbeatTransport configured) is treated the same as an unreachable
// peer rather than dereferenced.
func (w *HeartbeatWorker) probeOnce() bool {
	if w.transport == nil {
		return w.member.HeartbeatInfo().RecordFailure(time.Now(), "no heartbeat transport configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	req := HeartbeatRequest{
		SetName:    w.setName,
		FromID:     w.selfID,
		CfgVersion: w.cfgVersion,
	}

	resp, err := w.transport.Heartbeat(ctx, w.member.Host(), req)
	now := time.Now()
	if err != nil {
		changed := w.member.HeartbeatInfo().RecordFailure(now, err.Error())
		if changed {
			log.WithFields(log.Fields{"peer": w.member.FullName(), "err": err}).Warn("replset: heartbeat lost")
		}
		return changed
	}
	if !resp.OK {
		changed := w.member.HeartbeatInfo().RecordFailure(now, resp.ErrMsg)
		return changed
	}

	changed := w.member.HeartbeatInfo().RecordSuccess(now, resp.State, resp.OpTime, resp.CfgVersion, resp.Message)

	// A responder with a higher cfgVersion includes its configuration
	// document so the requester can trigger msgReceivedNewConfig (§6).
	if resp.Config != nil && resp.CfgVersion > w.cfgVersion {
		w.rs.manager.enqueue(event{kind: eventNewConfig, doc: resp.Config})
	}

	return changed
}

// startWorkersLocked starts one HeartbeatWorker per peer in rs.members. The
// caller must hold rs.mu (write-locked) for the duration of this call: it
// reads rs.cfg and rs.self directly rather than through config()/selfConfig()
// to avoid a self-deadlock on that same lock.
func (rs *ReplSet) startWorkersLocked() {
	setName := ""
	cfgVersion := 0
	if rs.cfg != nil {
		setName = rs.cfg.ID
		cfgVersion = rs.cfg.Version
	}
	var selfID uint
	if rs.self != nil {
		selfID = rs.self.ID()
	}

	rs.workersMu.Lock()
	defer rs.workersMu.Unlock()

	table := rs.members
	table.Each(func(m *Member) {
		w := newHeartbeatWorker(rs, m, table, setName, selfID, cfgVersion)
		rs.workers[m.ID()] = w
		w.start()
	})
}

// stopWorkersFor stops and removes the workers assigned to the given
// (now-orphaned) members, waiting for each to exit.
func (rs *ReplSet) stopWorkersFor(members []*Member) {
	rs.workersMu.Lock()
	toStop := make([]*HeartbeatWorker, 0, len(members))
	for _, m := range members {
		if w, ok := rs.workers[m.ID()]; ok {
			toStop = append(toStop, w)
			delete(rs.workers, m.ID())
		}
	}
	rs.workersMu.Unlock()

	var wg sync.WaitGroup
	for _, w := range toStop {
		wg.Add(1)
		go func(w *HeartbeatWorker) {
			defer wg.Done()
			w.stop()
		}(w)
	}
	wg.Wait()
}

// stopAllWorkers stops every currently running heartbeat worker (process
// shutdown, §5 cancellation).
func (rs *ReplSet) stopAllWorkers() {
	rs.workersMu.Lock()
	workers := make([]*HeartbeatWorker, 0, len(rs.workers))
	for _, w := range rs.workers {
		workers = append(workers, w)
	}
	rs.workers = make(map[uint]*HeartbeatWorker)
	rs.workersMu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *HeartbeatWorker) {
			defer wg.Done()
			w.stop()
		}(w)
	}
	wg.Wait()
}
