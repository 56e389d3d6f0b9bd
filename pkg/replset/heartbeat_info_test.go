package replset

import (
	"testing"
	"time"
)

func TestHeartbeatInfoInitialState(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	if hb.Up() {
		t.Error("freshly created HeartbeatInfo should not be Up")
	}
	if hb.State() != Down {
		t.Errorf("initial State() = %v, want Down", hb.State())
	}
	if !hb.OpTime().IsNull() {
		t.Error("initial OpTime() should be null")
	}
}

func TestHeartbeatInfoRecordSuccessUpFlip(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	now := time.Now()

	changed := hb.RecordSuccess(now, Secondary, OpTime{Secs: 1}, 1, "")
	if !changed {
		t.Error("down->up transition should be health-affecting")
	}
	if !hb.Up() {
		t.Error("Up() should be true after RecordSuccess")
	}
	if hb.UpSince().IsZero() {
		t.Error("UpSince() should be set on the down->up transition")
	}

	changed = hb.RecordSuccess(now.Add(time.Second), Secondary, OpTime{Secs: 1}, 1, "")
	if changed {
		t.Error("repeat success with no state/optime change should not be health-affecting")
	}
}

func TestHeartbeatInfoRecordSuccessOpTimeAdvance(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	now := time.Now()
	hb.RecordSuccess(now, Secondary, OpTime{Secs: 1}, 1, "")

	changed := hb.RecordSuccess(now, Secondary, OpTime{Secs: 2}, 1, "")
	if !changed {
		t.Error("an advancing opTime should be health-affecting")
	}
}

func TestHeartbeatInfoRecordSuccessPrimaryFlip(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	now := time.Now()
	hb.RecordSuccess(now, Secondary, OpTime{Secs: 1}, 1, "")

	changed := hb.RecordSuccess(now, Primary, OpTime{Secs: 1}, 1, "")
	if !changed {
		t.Error("a primary-flag flip should be health-affecting")
	}
}

func TestHeartbeatInfoRecordFailure(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	now := time.Now()
	hb.RecordSuccess(now, Secondary, OpTime{Secs: 1}, 1, "")

	changed := hb.RecordFailure(now.Add(time.Second), "connection refused")
	if !changed {
		t.Error("up->down transition should be health-affecting")
	}
	if hb.Up() {
		t.Error("Up() should be false after RecordFailure")
	}
	if !hb.UpSince().IsZero() {
		t.Error("UpSince() should be cleared once down")
	}
	if hb.State() != Down {
		t.Errorf("State() after failure = %v, want Down", hb.State())
	}

	changed = hb.RecordFailure(now.Add(2*time.Second), "still down")
	if changed {
		t.Error("repeat failure while already down should not be health-affecting")
	}
}

func TestHeartbeatInfoClearMessage(t *testing.T) {
	hb := NewHeartbeatInfo(1)
	hb.RecordSuccess(time.Now(), Secondary, OpTime{}, 1, "some message")
	if hb.LastHeartbeatMsg() == "" {
		t.Fatal("expected a message to be recorded")
	}
	hb.ClearMessage()
	if hb.LastHeartbeatMsg() != "" {
		t.Error("ClearMessage() did not clear the message")
	}
}
