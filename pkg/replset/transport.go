package replset

import "context"

// HeartbeatRequest and HeartbeatResponse are the wire shapes of the
// heartbeat RPC (§6). The responder includes Config when its cfgVersion is
// higher than the requester's, so the requester can trigger
// msgReceivedNewConfig.
type HeartbeatRequest struct {
	SetName   string
	FromID    uint
	CfgVersion int
}

type HeartbeatResponse struct {
	OK         bool
	State      MemberState
	OpTime     OpTime
	Message    string
	CfgVersion int
	Config     *ReplSetConfig
	ErrMsg     string
}

// HeartbeatTransport is the external collaborator a HeartbeatWorker probes
// its assigned peer through. Only its interface is specified (§1 out of
// scope); a real implementation would carry this over the network the way
// the teacher's (now-removed, see DESIGN.md) pkg/cluster/server/
// replication_service.go intended its AppendOplog/heartbeat RPCs to.
type HeartbeatTransport interface {
	Heartbeat(ctx context.Context, target HostPort, req HeartbeatRequest) (HeartbeatResponse, error)
}

// FreshnessRequest/Response and ElectRequest/Response are the two phases of
// the election RPC (§6).
type FreshnessRequest struct {
	CandidateID uint
	OpTime      OpTime
	CfgVersion  int
}

type FreshnessResponse struct {
	Veto   bool
	Reason string
}

type ElectRequest struct {
	CandidateID uint
	CfgVersion  int
	Round       uint64
}

type ElectResponse struct {
	Vote int // +1 or -1
}

// ElectionTransport is the external collaborator electSelf solicits votes
// through. Only its interface is specified (§1 out of scope).
type ElectionTransport interface {
	Freshness(ctx context.Context, target HostPort, req FreshnessRequest) (FreshnessResponse, error)
	Elect(ctx context.Context, target HostPort, req ElectRequest) (ElectResponse, error)
}
