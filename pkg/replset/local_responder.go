package replset

// handleHeartbeat answers a heartbeat RPC from the receiving node's own
// state (§6). It never takes rs.mu for the whole call: config()/selfConfig()
// and the StateBox/OpTime accessors each take their own lock briefly.
func (rs *ReplSet) handleHeartbeat(req HeartbeatRequest) HeartbeatResponse {
	cfg := rs.config()
	if cfg == nil {
		return HeartbeatResponse{OK: false, ErrMsg: "not yet configured"}
	}

	resp := HeartbeatResponse{
		OK:         true,
		State:      rs.State(),
		OpTime:     rs.SelfOpTime(),
		CfgVersion: cfg.Version,
	}
	rs.mu.RLock()
	resp.Message = rs.hbmsg
	rs.mu.RUnlock()

	if req.CfgVersion < cfg.Version {
		resp.Config = cfg
	}
	return resp
}

// handleFreshness answers a freshness-check RPC (§4.4 phase one), grounded
// on the original's CmdReplSetFresh: veto a candidate whose configuration
// version doesn't match ours, who is behind our own optime, or when we
// ourselves already believe we are primary.
func (rs *ReplSet) handleFreshness(req FreshnessRequest) FreshnessResponse {
	cfg := rs.config()
	if cfg == nil {
		return FreshnessResponse{Veto: true, Reason: "not yet configured"}
	}
	if req.CfgVersion != cfg.Version {
		return FreshnessResponse{Veto: true, Reason: "configuration versions do not match"}
	}
	if rs.IsPrimary() {
		return FreshnessResponse{Veto: true, Reason: "I am already primary"}
	}
	if req.OpTime.Less(rs.SelfOpTime()) {
		return FreshnessResponse{Veto: true, Reason: "candidate's data is stale"}
	}
	return FreshnessResponse{}
}

// handleElect answers a vote-solicitation RPC (§4.4 phase two), grounded on
// the original's CmdReplSetElect: vote no if our configuration version
// doesn't match the candidate's or if we ourselves believe we are primary,
// otherwise vote yes.
func (rs *ReplSet) handleElect(req ElectRequest) ElectResponse {
	cfg := rs.config()
	if cfg == nil || req.CfgVersion != cfg.Version {
		return ElectResponse{Vote: -1}
	}
	if rs.IsPrimary() {
		return ElectResponse{Vote: -1}
	}
	return ElectResponse{Vote: 1}
}
