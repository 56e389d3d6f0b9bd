package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mnohosten/laura-db/pkg/replset"
)

// ReplSetHandlers exposes the membership/primary-election state of a
// replset.ReplSet as diagnostics and admin HTTP endpoints. It holds no
// database reference; everything it reports comes off replset.Snapshot,
// which itself never feeds back into the decision procedure.
type ReplSetHandlers struct {
	rs *replset.ReplSet
}

// NewReplSetHandlers wraps an already-configured ReplSet for HTTP exposure.
func NewReplSetHandlers(rs *replset.ReplSet) *ReplSetHandlers {
	return &ReplSetHandlers{rs: rs}
}

// Status handles GET /_replset/status, the equivalent of replSetGetStatus:
// self plus every configured peer, each with its last-known state and optime.
func (rh *ReplSetHandlers) Status(w http.ResponseWriter, r *http.Request) {
	if rh.rs == nil {
		writeError(w, &BadRequestError{Message: "replica set is not enabled on this node"})
		return
	}
	writeSuccess(w, rh.rs.Snapshot())
}

// Members handles GET /_replset/members, the bare member list without the
// enclosing set name/primary fields.
func (rh *ReplSetHandlers) Members(w http.ResponseWriter, r *http.Request) {
	if rh.rs == nil {
		writeError(w, &BadRequestError{Message: "replica set is not enabled on this node"})
		return
	}
	writeSuccess(w, rh.rs.Snapshot().Members)
}

// reconfigRequest is the POST /_replset/reconfig body: a full replacement
// configuration document, the same shape a node loads at startup (§6).
type reconfigRequest struct {
	ID      string                 `json:"_id"`
	Version int                    `json:"version"`
	Members []replset.MemberConfig `json:"members"`
}

// Reconfig handles POST /_replset/reconfig. The submitted document is fed
// to the manager exactly as a peer-originated configuration would be
// (§4.7(b)): it is only accepted if its version is newer than whatever is
// currently installed, so this endpoint cannot be used to roll a
// configuration backwards.
func (rh *ReplSetHandlers) Reconfig(w http.ResponseWriter, r *http.Request) {
	if rh.rs == nil {
		writeError(w, &BadRequestError{Message: "replica set is not enabled on this node"})
		return
	}

	var body reconfigRequest
	if err := parseJSONBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	id := body.ID
	if id == "" {
		id = rh.rs.Snapshot().Set
	}
	cfg := &replset.ReplSetConfig{
		ID:      id,
		Version: body.Version,
		Members: body.Members,
	}
	if !cfg.Ok() {
		writeError(w, &BadRequestError{Message: "malformed or incomplete configuration document"})
		return
	}

	rh.rs.ReceiveConfig(cfg)
	writeSuccess(w, map[string]interface{}{"version": cfg.Version})
}

// StepDown handles POST /_replset/stepdown, asking a primary to relinquish.
// It is a no-op (still a 200) when this node isn't currently primary.
func (rh *ReplSetHandlers) StepDown(w http.ResponseWriter, r *http.Request) {
	if rh.rs == nil {
		writeError(w, &BadRequestError{Message: "replica set is not enabled on this node"})
		return
	}
	rh.rs.RequestStepDown()
	writeSuccess(w, map[string]interface{}{"stepdownRequested": true})
}

// RegisterReplSetRoutes mounts the diagnostics/admin endpoints under
// /_replset on r.
func RegisterReplSetRoutes(r chi.Router, rs *replset.ReplSet) {
	rh := NewReplSetHandlers(rs)
	r.Route("/_replset", func(rr chi.Router) {
		rr.Get("/status", rh.Status)
		rr.Get("/members", rh.Members)
		rr.Post("/reconfig", rh.Reconfig)
		rr.Post("/stepdown", rh.StepDown)
	})
}
