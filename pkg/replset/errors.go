package replset

import "errors"

// Sentinel errors for the kinds named in the error-handling design.
// NetworkTransient-class failures never reach this far up the stack: the
// heartbeat worker swallows them locally (see heartbeat.go) and degrades
// HeartbeatInfo instead of returning an error.
var (
	// ErrTwoMasters is raised by findOtherPrimary when two distinct peers
	// both report themselves primary and up. It is a diagnostic warning,
	// not a state change: the manager logs it and waits for the next tick.
	ErrTwoMasters = errors.New("replset: two masters observed")

	// ErrConfigInvalid means a proposed configuration document fails
	// ReplSetConfig.Ok() (missing version, empty set name, duplicate ids,
	// or an empty host).
	ErrConfigInvalid = errors.New("replset: configuration is not well-formed")

	// ErrConfigConflict means self appears more than once in a
	// configuration document. This is a fatal assertion: the install
	// attempt is rejected outright, never retried with the same config.
	ErrConfigConflict = errors.New("replset: self appears twice in configuration")

	// ErrSelfNotInConfig means self does not appear in a configuration
	// document at all. The caller (ConfigLoader) retries from scratch.
	ErrSelfNotInConfig = errors.New("replset: self not present in configuration")

	// ErrEmptyConfig means every configuration candidate collected during
	// a load attempt was empty (never initialized).
	ErrEmptyConfig = errors.New("replset: no configuration found on self or any seed")

	// ErrEmptyUnreachable means no candidate was ok, and at least one
	// seed query errored rather than coming back empty.
	ErrEmptyUnreachable = errors.New("replset: configuration unreachable on self and seeds")

	// ErrStaleConfig means a proposed configuration's version does not
	// exceed the currently installed version.
	ErrStaleConfig = errors.New("replset: proposed configuration version is not newer")

	// ErrElectionRetry signals electSelf should be requeued rather than
	// treated as a hard failure (RetryAfterSleep in the original design).
	ErrElectionRetry = errors.New("replset: election needs retry after sleep")

	// ErrReconfigFailed wraps an unexpected error during initFromConfig
	// that forces a transition to Fatal.
	ErrReconfigFailed = errors.New("replset: reconfiguration failed")
)
