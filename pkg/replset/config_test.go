package replset

import (
	"encoding/json"
	"testing"
)

func TestMemberConfigUnmarshalDefaults(t *testing.T) {
	var m MemberConfig
	if err := json.Unmarshal([]byte(`{"_id":1,"host":"a:27017"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Votes != 1 {
		t.Errorf("Votes = %d, want 1", m.Votes)
	}
	if m.Priority != 1.0 {
		t.Errorf("Priority = %v, want 1.0", m.Priority)
	}
}

func TestMemberConfigUnmarshalExplicit(t *testing.T) {
	var m MemberConfig
	raw := `{"_id":2,"host":"b:27017","votes":0,"priority":0,"arbiterOnly":true,"hidden":true}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Votes != 0 {
		t.Errorf("Votes = %d, want 0", m.Votes)
	}
	if m.Priority != 0 {
		t.Errorf("Priority = %v, want 0", m.Priority)
	}
	if !m.ArbiterOnly || !m.Hidden {
		t.Error("ArbiterOnly/Hidden not round-tripped")
	}
}

func TestMemberConfigPotentiallyHot(t *testing.T) {
	normal := MemberConfig{Priority: 1}
	if !normal.PotentiallyHot(Secondary) {
		t.Error("normal secondary should be potentially hot")
	}
	if normal.PotentiallyHot(Primary) {
		t.Error("already-primary should not be potentially hot")
	}

	arbiter := MemberConfig{Priority: 1, ArbiterOnly: true}
	if arbiter.PotentiallyHot(Secondary) {
		t.Error("arbiter-only must never be potentially hot")
	}

	zeroPriority := MemberConfig{Priority: 0}
	if zeroPriority.PotentiallyHot(Secondary) {
		t.Error("priority=0 must be a hard gate against election")
	}
}

func TestReplSetConfigOk(t *testing.T) {
	good := &ReplSetConfig{
		ID:      "rs0",
		Version: 1,
		Members: []MemberConfig{{ID: 0, Host: "a:1"}, {ID: 1, Host: "b:1"}},
	}
	if !good.Ok() {
		t.Error("well-formed config reported not Ok")
	}

	dup := &ReplSetConfig{
		ID:      "rs0",
		Version: 1,
		Members: []MemberConfig{{ID: 0, Host: "a:1"}, {ID: 0, Host: "b:1"}},
	}
	if dup.Ok() {
		t.Error("duplicate member ids should not be Ok")
	}

	noVersion := &ReplSetConfig{ID: "rs0", Members: []MemberConfig{{ID: 0, Host: "a:1"}}}
	if noVersion.Ok() {
		t.Error("version < 1 should not be Ok")
	}

	var nilCfg *ReplSetConfig
	if nilCfg.Ok() {
		t.Error("nil config should not be Ok")
	}
}

func TestReplSetConfigEmpty(t *testing.T) {
	var nilCfg *ReplSetConfig
	if !nilCfg.Empty() {
		t.Error("nil config should be Empty")
	}
	zero := &ReplSetConfig{}
	if !zero.Empty() {
		t.Error("zero-value config should be Empty")
	}
	real := &ReplSetConfig{Version: 1, Members: []MemberConfig{{ID: 0, Host: "a:1"}}}
	if real.Empty() {
		t.Error("installed config should not be Empty")
	}
}

func TestReplSetConfigTotalVotes(t *testing.T) {
	cfg := &ReplSetConfig{Members: []MemberConfig{
		{Votes: 1}, {Votes: 1}, {Votes: 0},
	}}
	if got := cfg.TotalVotes(); got != 2 {
		t.Errorf("TotalVotes() = %d, want 2", got)
	}
}

func TestReplSetConfigSelfMember(t *testing.T) {
	cfg := &ReplSetConfig{Members: []MemberConfig{
		{ID: 0, Host: "a:1"}, {ID: 1, Host: "b:1"},
	}}
	self := SelfCheckerFunc(func(h HostPort) bool { return h == "b:1" })
	idx, count := cfg.SelfMember(self)
	if idx != 1 || count != 1 {
		t.Errorf("SelfMember() = (%d, %d), want (1, 1)", idx, count)
	}

	none := SelfCheckerFunc(func(HostPort) bool { return false })
	idx, count = cfg.SelfMember(none)
	if idx != -1 || count != 0 {
		t.Errorf("SelfMember() with no match = (%d, %d), want (-1, 0)", idx, count)
	}
}

func TestNewHostPort(t *testing.T) {
	if _, err := NewHostPort("not-a-hostport"); err == nil {
		t.Error("expected error for missing port")
	}
	hp, err := NewHostPort(" a:27017 ")
	if err != nil {
		t.Fatalf("NewHostPort: %v", err)
	}
	if hp != "a:27017" {
		t.Errorf("NewHostPort trimmed = %q, want %q", hp, "a:27017")
	}
}
