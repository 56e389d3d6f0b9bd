package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/mnohosten/laura-db/pkg/replset"
)

// WriteConcern specifies the level of write durability required
type WriteConcern struct {
	// W specifies the number of nodes that must acknowledge a write
	// Special values:
	//   0: No acknowledgment (fire and forget)
	//   1: Primary only (default)
	//   majority: Majority of voting members
	//   N (>1): Wait for N nodes to acknowledge
	W interface{}

	// WTimeout specifies how long to wait for acknowledgment
	// 0 means wait indefinitely (default)
	WTimeout time.Duration

	// J specifies whether to wait for journal/oplog sync
	// true: Wait for write to be persisted to oplog
	// false: Just wait for in-memory acknowledgment (default)
	J bool
}

// DefaultWriteConcern returns the default write concern (w:1, no timeout)
func DefaultWriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        1,
		WTimeout: 0,
		J:        false,
	}
}

// MajorityWriteConcern returns write concern requiring majority acknowledgment
func MajorityWriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        "majority",
		WTimeout: 0,
		J:        false,
	}
}

// UnacknowledgedWriteConcern returns fire-and-forget write concern (w:0)
func UnacknowledgedWriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        0,
		WTimeout: 0,
		J:        false,
	}
}

// W1WriteConcern returns write concern for primary-only acknowledgment
func W1WriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        1,
		WTimeout: 0,
		J:        false,
	}
}

// W2WriteConcern returns write concern for 2-node acknowledgment
func W2WriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        2,
		WTimeout: 0,
		J:        false,
	}
}

// W3WriteConcern returns write concern for 3-node acknowledgment
func W3WriteConcern() *WriteConcern {
	return &WriteConcern{
		W:        3,
		WTimeout: 0,
		J:        false,
	}
}

// WithTimeout returns a copy of the write concern with specified timeout
func (wc *WriteConcern) WithTimeout(timeout time.Duration) *WriteConcern {
	return &WriteConcern{
		W:        wc.W,
		WTimeout: timeout,
		J:        wc.J,
	}
}

// WithJournal returns a copy of the write concern with journal sync enabled
func (wc *WriteConcern) WithJournal(j bool) *WriteConcern {
	return &WriteConcern{
		W:        wc.W,
		WTimeout: wc.WTimeout,
		J:        j,
	}
}

// GetRequiredAcknowledgments calculates the number of required acknowledgments
// Returns the number and whether it's majority-based
func (wc *WriteConcern) GetRequiredAcknowledgments(totalVotingMembers int) (int, bool, error) {
	switch v := wc.W.(type) {
	case int:
		if v < 0 {
			return 0, false, fmt.Errorf("invalid w value: %d (must be >= 0)", v)
		}
		if v > totalVotingMembers {
			return 0, false, fmt.Errorf("w value %d exceeds total voting members %d", v, totalVotingMembers)
		}
		return v, false, nil
	case string:
		if v == "majority" {
			majority := (totalVotingMembers / 2) + 1
			return majority, true, nil
		}
		return 0, false, fmt.Errorf("invalid w value: %s (must be int or 'majority')", v)
	default:
		return 0, false, fmt.Errorf("invalid w type: %T", v)
	}
}

// Validate validates the write concern configuration
func (wc *WriteConcern) Validate() error {
	if wc == nil {
		return fmt.Errorf("write concern cannot be nil")
	}

	switch v := wc.W.(type) {
	case int:
		if v < 0 {
			return fmt.Errorf("invalid w value: %d (must be >= 0)", v)
		}
	case string:
		if v != "majority" {
			return fmt.Errorf("invalid w value: %s (must be int or 'majority')", v)
		}
	default:
		return fmt.Errorf("invalid w type: %T (must be int or string)", v)
	}

	if wc.WTimeout < 0 {
		return fmt.Errorf("invalid wtimeout: %v (must be >= 0)", wc.WTimeout)
	}

	return nil
}

// String returns a string representation of the write concern
func (wc *WriteConcern) String() string {
	j := "false"
	if wc.J {
		j = "true"
	}

	timeout := "none"
	if wc.WTimeout > 0 {
		timeout = wc.WTimeout.String()
	}

	return fmt.Sprintf("{w:%v, wtimeout:%s, j:%s}", wc.W, timeout, j)
}

// IsAcknowledged returns true if the write concern requires acknowledgment
func (wc *WriteConcern) IsAcknowledged() bool {
	if intVal, ok := wc.W.(int); ok {
		return intVal > 0
	}
	return true // "majority" is always acknowledged
}

// RequiresJournal returns true if journal sync is required
func (wc *WriteConcern) RequiresJournal() bool {
	return wc.J
}

// GetTimeout returns the timeout duration
func (wc *WriteConcern) GetTimeout() time.Duration {
	return wc.WTimeout
}

// WriteResult contains the result of a write operation with write concern
type WriteResult struct {
	// Acknowledged indicates if the write was acknowledged
	Acknowledged bool

	// OpID is the operation ID in the oplog
	OpID OpID

	// NodesAcknowledged is the number of nodes that acknowledged
	NodesAcknowledged int

	// NodesRequired is the number of nodes required by write concern
	NodesRequired int

	// JournalSynced indicates if the write was synced to journal/oplog
	JournalSynced bool

	// ElapsedTime is how long the write took
	ElapsedTime time.Duration
}

// String returns a string representation of the write result
func (wr *WriteResult) String() string {
	return fmt.Sprintf(
		"{acked:%v, opid:%d, nodes:%d/%d, journal:%v, time:%v}",
		wr.Acknowledged,
		wr.OpID,
		wr.NodesAcknowledged,
		wr.NodesRequired,
		wr.JournalSynced,
		wr.ElapsedTime,
	)
}

// Writer applies local writes to an Oplog and, when the write concern asks
// for it, blocks until enough peers have caught up. Replication progress is
// read off the same replset.Member/HeartbeatInfo bookkeeping the membership
// controller already maintains for its own elections (rs.RecordSelfWrite
// advances self's OpTime the instant the entry is durable locally; peers
// advance theirs as their heartbeat workers observe them catching up),
// rather than a second parallel acknowledgment scheme.
type Writer struct {
	rs    *replset.ReplSet
	oplog *Oplog
}

// NewWriter builds a Writer over an already-configured ReplSet and Oplog.
func NewWriter(rs *replset.ReplSet, oplog *Oplog) *Writer {
	return &Writer{rs: rs, oplog: oplog}
}

// WriteWithConcern performs a write operation and waits for the specified write concern
func (w *Writer) WriteWithConcern(ctx context.Context, entry *OplogEntry, wc *WriteConcern) (*WriteResult, error) {
	startTime := time.Now()

	if err := wc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid write concern: %w", err)
	}

	if !w.rs.IsPrimary() {
		return nil, fmt.Errorf("not primary")
	}

	if err := w.oplog.Append(entry); err != nil {
		return nil, fmt.Errorf("failed to log operation: %w", err)
	}
	opID := entry.OpID

	// Mark self caught up to this write; this is the threshold later
	// acknowledgment counting waits for peers to reach.
	ot := w.rs.RecordSelfWrite()

	if !wc.IsAcknowledged() {
		return &WriteResult{
			Acknowledged:      false,
			OpID:              opID,
			NodesAcknowledged: 0,
			NodesRequired:     0,
			JournalSynced:     false,
			ElapsedTime:       time.Since(startTime),
		}, nil
	}

	totalVotingMembers := w.countVotingMembers()
	required, isMajority, err := wc.GetRequiredAcknowledgments(totalVotingMembers)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate required acknowledgments: %w", err)
	}

	if required <= 1 && !wc.RequiresJournal() {
		return &WriteResult{
			Acknowledged:      true,
			OpID:              opID,
			NodesAcknowledged: 1,
			NodesRequired:     1,
			JournalSynced:     false,
			ElapsedTime:       time.Since(startTime),
		}, nil
	}

	waitCtx := ctx
	if wc.WTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, wc.WTimeout)
		defer cancel()
	}

	if required > 1 {
		if err := w.waitForReplicationToOpTime(waitCtx, ot, required); err != nil {
			acknowledged := w.countAcknowledgedNodes(ot)
			return &WriteResult{
				Acknowledged:      false,
				OpID:              opID,
				NodesAcknowledged: acknowledged,
				NodesRequired:     required,
				JournalSynced:     false,
				ElapsedTime:       time.Since(startTime),
			}, fmt.Errorf("replication failed: %w", err)
		}
	}

	journalSynced := false
	if wc.RequiresJournal() {
		// The local oplog is fsync'd on append; no separate journal step exists.
		journalSynced = true
	}

	acknowledged := w.countAcknowledgedNodes(ot)

	result := &WriteResult{
		Acknowledged:      true,
		OpID:              opID,
		NodesAcknowledged: acknowledged,
		NodesRequired:     required,
		JournalSynced:     journalSynced,
		ElapsedTime:       time.Since(startTime),
	}

	if isMajority && acknowledged < required {
		return result, fmt.Errorf("majority write concern not satisfied: got %d, needed %d", acknowledged, required)
	}

	return result, nil
}

// waitForReplicationToOpTime polls until enough voting peers report an
// OpTime at or past ot, or the context is cancelled.
func (w *Writer) waitForReplicationToOpTime(ctx context.Context, ot replset.OpTime, required int) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w.countAcknowledgedNodes(ot) >= required {
				return nil
			}
		}
	}
}

// countVotingMembers counts self plus every configured peer with Votes > 0.
func (w *Writer) countVotingMembers() int {
	cfg := w.rs.Config()
	if cfg == nil {
		return 1
	}
	count := 0
	for _, m := range cfg.Members {
		if m.Votes > 0 {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// countAcknowledgedNodes counts self plus every voting peer whose last
// reported OpTime has reached ot.
func (w *Writer) countAcknowledgedNodes(ot replset.OpTime) int {
	count := 1 // self always counts, RecordSelfWrite already advanced it
	w.rs.MemberTable().Each(func(m *replset.Member) {
		if m.Config().Votes == 0 {
			return
		}
		if m.HeartbeatInfo().OpTime().GTE(ot) {
			count++
		}
	})
	return count
}
