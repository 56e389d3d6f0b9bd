package replication

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mnohosten/laura-db/pkg/database"
	"github.com/mnohosten/laura-db/pkg/replset"
)

// ReadPreferenceMode determines where reads are routed
type ReadPreferenceMode int

const (
	// ReadPrimary - all reads from primary only (default)
	ReadPrimary ReadPreferenceMode = iota

	// ReadPrimaryPreferred - read from primary if available, else secondary
	ReadPrimaryPreferred

	// ReadSecondary - read from secondary only (error if no secondaries)
	ReadSecondary

	// ReadSecondaryPreferred - read from secondary if available, else primary
	ReadSecondaryPreferred

	// ReadNearest - read from node with lowest latency
	ReadNearest
)

// String returns the string representation of the read preference mode
func (m ReadPreferenceMode) String() string {
	switch m {
	case ReadPrimary:
		return "primary"
	case ReadPrimaryPreferred:
		return "primaryPreferred"
	case ReadSecondary:
		return "secondary"
	case ReadSecondaryPreferred:
		return "secondaryPreferred"
	case ReadNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// ReadPreference defines how reads should be routed in a replica set
type ReadPreference struct {
	Mode ReadPreferenceMode

	// MaxStalenessSeconds - max acceptable lag for secondary reads (0 = no limit)
	MaxStalenessSeconds int

	// Tags - optional tag filters for selecting specific nodes
	Tags map[string]string

	mu sync.RWMutex
}

// NewReadPreference creates a new read preference with the specified mode
func NewReadPreference(mode ReadPreferenceMode) *ReadPreference {
	return &ReadPreference{
		Mode:                mode,
		MaxStalenessSeconds: 0,
		Tags:                make(map[string]string),
	}
}

// Primary returns a read preference for primary reads only
func Primary() *ReadPreference {
	return NewReadPreference(ReadPrimary)
}

// PrimaryPreferred returns a read preference for primary-preferred reads
func PrimaryPreferred() *ReadPreference {
	return NewReadPreference(ReadPrimaryPreferred)
}

// Secondary returns a read preference for secondary reads only
func Secondary() *ReadPreference {
	return NewReadPreference(ReadSecondary)
}

// SecondaryPreferred returns a read preference for secondary-preferred reads
func SecondaryPreferred() *ReadPreference {
	return NewReadPreference(ReadSecondaryPreferred)
}

// Nearest returns a read preference for nearest node reads
func Nearest() *ReadPreference {
	return NewReadPreference(ReadNearest)
}

// WithMaxStaleness sets the maximum staleness for secondary reads
func (rp *ReadPreference) WithMaxStaleness(seconds int) *ReadPreference {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.MaxStalenessSeconds = seconds
	return rp
}

// WithTags sets tag filters for node selection
func (rp *ReadPreference) WithTags(tags map[string]string) *ReadPreference {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.Tags = tags
	return rp
}

// GetMode returns the read preference mode
func (rp *ReadPreference) GetMode() ReadPreferenceMode {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.Mode
}

// GetMaxStaleness returns the maximum staleness in seconds
func (rp *ReadPreference) GetMaxStaleness() int {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.MaxStalenessSeconds
}

// GetTags returns the tag filters
func (rp *ReadPreference) GetTags() map[string]string {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	// Return a copy to avoid external mutations
	tags := make(map[string]string, len(rp.Tags))
	for k, v := range rp.Tags {
		tags[k] = v
	}
	return tags
}

// String returns a string representation of the read preference
func (rp *ReadPreference) String() string {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	s := fmt.Sprintf("ReadPreference{mode=%s", rp.Mode)
	if rp.MaxStalenessSeconds > 0 {
		s += fmt.Sprintf(", maxStaleness=%ds", rp.MaxStalenessSeconds)
	}
	if len(rp.Tags) > 0 {
		s += fmt.Sprintf(", tags=%v", rp.Tags)
	}
	s += "}"
	return s
}

// NodeCandidate represents a candidate node for read operations, derived
// from a replset.Member's configuration and heartbeat record.
type NodeCandidate struct {
	Host    replset.HostPort
	Primary bool
	State   replset.MemberState
	Lag     time.Duration
	Tags    map[string]string
}

// ReadPreferenceSelector selects appropriate nodes based on read preference,
// grounded on the membership view published by a replset.ReplSet rather than
// a private member map (§6 Diagnostics: "never feed back into the decision
// procedure" — this selector only reads it).
type ReadPreferenceSelector struct {
	rs *replset.ReplSet
	mu sync.RWMutex
}

// NewReadPreferenceSelector creates a new read preference selector
func NewReadPreferenceSelector(rs *replset.ReplSet) *ReadPreferenceSelector {
	return &ReadPreferenceSelector{rs: rs}
}

// SelectNode selects a node based on the read preference
func (s *ReadPreferenceSelector) SelectNode(ctx context.Context, pref *ReadPreference) (replset.HostPort, error) {
	if pref == nil {
		pref = Primary() // Default to primary
	}

	candidates := s.getCandidates()
	if len(candidates) == 0 {
		return "", fmt.Errorf("no nodes available")
	}

	switch pref.GetMode() {
	case ReadPrimary:
		return s.selectPrimary(candidates)

	case ReadPrimaryPreferred:
		node, err := s.selectPrimary(candidates)
		if err == nil {
			return node, nil
		}
		return s.selectSecondary(candidates, pref)

	case ReadSecondary:
		return s.selectSecondary(candidates, pref)

	case ReadSecondaryPreferred:
		node, err := s.selectSecondary(candidates, pref)
		if err == nil {
			return node, nil
		}
		return s.selectPrimary(candidates)

	case ReadNearest:
		return s.selectNearest(candidates, pref)

	default:
		return "", fmt.Errorf("unknown read preference mode: %v", pref.GetMode())
	}
}

// getCandidates builds one NodeCandidate for self and for every peer the
// replset believes is up, computing Lag from the gap between self's own
// optime and the peer's last-reported optime (both in wall-clock seconds).
func (s *ReadPreferenceSelector) getCandidates() []*NodeCandidate {
	snap := s.rs.StateBox().Get()
	selfOpTime := s.rs.SelfOpTime()

	candidates := make([]*NodeCandidate, 0)

	if self := s.rs.Self(); self != nil {
		candidates = append(candidates, &NodeCandidate{
			Host:    self.Host(),
			Primary: snap.PrimaryIsSelf,
			State:   snap.State,
			Lag:     0,
			Tags:    map[string]string{},
		})
	}

	s.rs.MemberTable().Each(func(m *replset.Member) {
		hb := m.HeartbeatInfo()
		if !hb.Up() {
			return
		}
		lag := time.Duration(0)
		if peerSecs, selfSecs := hb.OpTime().Secs, selfOpTime.Secs; selfSecs > peerSecs {
			lag = time.Duration(selfSecs-peerSecs) * time.Second
		}
		candidates = append(candidates, &NodeCandidate{
			Host:    m.Host(),
			Primary: hb.State().IsPrimary(),
			State:   hb.State(),
			Lag:     lag,
			Tags:    map[string]string{},
		})
	})

	return candidates
}

// selectPrimary selects the primary node
func (s *ReadPreferenceSelector) selectPrimary(candidates []*NodeCandidate) (replset.HostPort, error) {
	for _, candidate := range candidates {
		if candidate.Primary {
			return candidate.Host, nil
		}
	}
	return "", fmt.Errorf("no primary node available")
}

// selectSecondary selects a secondary node
func (s *ReadPreferenceSelector) selectSecondary(candidates []*NodeCandidate, pref *ReadPreference) (replset.HostPort, error) {
	secondaries := make([]*NodeCandidate, 0)
	for _, candidate := range candidates {
		if candidate.Primary || !candidate.State.IsSecondary() {
			continue
		}

		maxStaleness := pref.GetMaxStaleness()
		if maxStaleness > 0 && candidate.Lag > time.Duration(maxStaleness)*time.Second {
			continue // Too stale
		}

		if !matchesTags(candidate.Tags, pref.GetTags()) {
			continue
		}

		secondaries = append(secondaries, candidate)
	}

	if len(secondaries) == 0 {
		return "", fmt.Errorf("no suitable secondary nodes available")
	}

	// Randomly select one of the secondaries for load balancing
	return secondaries[rand.Intn(len(secondaries))].Host, nil
}

// selectNearest selects the nearest node (lowest latency)
func (s *ReadPreferenceSelector) selectNearest(candidates []*NodeCandidate, pref *ReadPreference) (replset.HostPort, error) {
	eligible := make([]*NodeCandidate, 0)

	for _, candidate := range candidates {
		maxStaleness := pref.GetMaxStaleness()
		if !candidate.Primary && maxStaleness > 0 && candidate.Lag > time.Duration(maxStaleness)*time.Second {
			continue
		}
		if !matchesTags(candidate.Tags, pref.GetTags()) {
			continue
		}
		eligible = append(eligible, candidate)
	}

	if len(eligible) == 0 {
		return "", fmt.Errorf("no suitable nodes available")
	}

	// Latency isn't tracked by replset (out of scope); pick randomly among
	// the eligible set the way the teacher's nearest-mode placeholder did.
	return eligible[rand.Intn(len(eligible))].Host, nil
}

func matchesTags(have, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// ReadRouter wraps a replset-backed replica set and routes reads to the
// local database, based on the read preference's node selection decision.
type ReadRouter struct {
	rs       *replset.ReplSet
	db       *database.Database
	selector *ReadPreferenceSelector
	mu       sync.RWMutex
}

// NewReadRouter creates a new read router
func NewReadRouter(rs *replset.ReplSet, db *database.Database) *ReadRouter {
	return &ReadRouter{
		rs:       rs,
		db:       db,
		selector: NewReadPreferenceSelector(rs),
	}
}

// ReadDocument reads a document with the specified read preference
func (r *ReadRouter) ReadDocument(ctx context.Context, collName string, filter map[string]interface{}, pref *ReadPreference) (map[string]interface{}, error) {
	// Select appropriate node; the selection itself is the read-preference
	// contract, routing to a remote node is out of scope for this package.
	if _, err := r.selector.SelectNode(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to select node: %w", err)
	}

	coll := r.db.Collection(collName)
	doc, err := coll.FindOne(filter)
	if err != nil {
		return nil, err
	}

	return doc.ToMap(), nil
}

// ReadDocuments reads multiple documents with the specified read preference
func (r *ReadRouter) ReadDocuments(ctx context.Context, collName string, filter map[string]interface{}, pref *ReadPreference) ([]map[string]interface{}, error) {
	if _, err := r.selector.SelectNode(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to select node: %w", err)
	}

	coll := r.db.Collection(collName)
	docs, err := coll.Find(filter)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		result[i] = doc.ToMap()
	}

	return result, nil
}

// GetSelectedNode returns the node that would be selected for the given read preference
func (r *ReadRouter) GetSelectedNode(ctx context.Context, pref *ReadPreference) (replset.HostPort, error) {
	return r.selector.SelectNode(ctx, pref)
}
