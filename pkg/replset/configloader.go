package replset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartupStatus is the operator-visible enum from §6.
type StartupStatus int

const (
	PreStart StartupStatus = iota
	LoadingConfig
	EmptyConfig
	EmptyUnreachable
	BadConfig
	Started
	StartupFatal
)

func (s StartupStatus) String() string {
	switch s {
	case PreStart:
		return "PRESTART"
	case LoadingConfig:
		return "LOADINGCONFIG"
	case EmptyConfig:
		return "EMPTYCONFIG"
	case EmptyUnreachable:
		return "EMPTYUNREACHABLE"
	case BadConfig:
		return "BADCONFIG"
	case Started:
		return "STARTED"
	case StartupFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ConfigCandidate is one result of querying a single configuration source
// (self's local record, or a seed host) during the collect phase (§4.6).
type ConfigCandidate struct {
	Config *ReplSetConfig // non-nil only when Err == nil
	Err    error
}

// ConfigSource produces one ConfigCandidate, e.g. "read my local record" or
// "ask this seed host for its configuration". Out of scope per §1 (the
// network query itself); only the interface is specified.
type ConfigSource interface {
	Query(ctx context.Context) ConfigCandidate
}

// ConfigSourceFunc adapts a function to a ConfigSource.
type ConfigSourceFunc func(context.Context) ConfigCandidate

func (f ConfigSourceFunc) Query(ctx context.Context) ConfigCandidate { return f(ctx) }

// ConfigPersister durably stores the locally-installed configuration
// (§4.6 step 4) and recalls it on the next process start. Out of scope;
// only the interface is specified.
type ConfigPersister interface {
	Save(cfg *ReplSetConfig) error
}

// ConfigLoader bootstraps a ReplSet's configuration from a local record
// plus seed hosts, picking the highest-versioned candidate (§4.6).
type ConfigLoader struct {
	rs        *ReplSet
	local     ConfigSource
	seeds     []ConfigSource
	persister ConfigPersister

	retryDelay func() time.Duration

	mu     sync.RWMutex
	status StartupStatus
	msg    string
}

// NewConfigLoader constructs a loader for rs. local queries self's own
// record; seeds queries each seed host (and any later-discovered seed);
// persister durably saves the installed configuration when its version
// advances past what was previously local.
func NewConfigLoader(rs *ReplSet, local ConfigSource, seeds []ConfigSource, persister ConfigPersister) *ConfigLoader {
	return &ConfigLoader{
		rs:        rs,
		local:     local,
		seeds:     seeds,
		persister: persister,
		retryDelay: func() time.Duration {
			return time.Duration(10+rand.Intn(10)) * time.Second
		},
		status: PreStart,
	}
}

// Status returns the current startup status and human-readable message.
func (l *ConfigLoader) Status() (StartupStatus, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status, l.msg
}

func (l *ConfigLoader) setStatus(s StartupStatus, msg string) {
	l.mu.Lock()
	l.status = s
	l.msg = msg
	l.mu.Unlock()
}

// Run loads and installs a configuration, retrying indefinitely on
// transient failures (§4.6). It returns only once a configuration has been
// installed, or ctx is canceled.
func (l *ConfigLoader) Run(ctx context.Context) error {
	for {
		l.setStatus(LoadingConfig, "loading replica set configuration")

		candidates := l.collect(ctx)

		nok, nempty := 0, 0
		var highest *ReplSetConfig
		var firstErr error
		for _, c := range candidates {
			if c.Err != nil {
				if firstErr == nil {
					firstErr = c.Err
				}
				continue
			}
			if c.Config.Ok() {
				nok++
				if highest == nil || c.Config.Version > highest.Version {
					highest = c.Config
				}
			}
			if c.Config.Empty() {
				nempty++
			}
		}

		if nok == 0 {
			if nempty == len(candidates) {
				l.setStatus(EmptyConfig, "can't get config from self or any seed (EMPTYCONFIG)")
				log.Warn("replset: can't get config from self or any seed; have you initialized the set yet?")
			} else {
				l.setStatus(EmptyUnreachable, "can't currently get config from self or any seed (EMPTYUNREACHABLE)")
				log.WithError(firstErr).Warn("replset: can't get config from self or any seed")
			}
			if !sleepCtx(ctx, l.retryDelay()) {
				return ctx.Err()
			}
			continue
		}

		if err := l.rs.initFromConfig(highest); err != nil {
			if errors.Is(err, ErrSelfNotInConfig) {
				log.Info("replset: couldn't find self in loaded config yet, retrying")
				if !sleepCtx(ctx, l.retryDelay()) {
					return ctx.Err()
				}
				continue
			}
			l.setStatus(BadConfig, fmt.Sprintf("error loading set config (BADCONFIG): %v", err))
			l.rs.fatal("bad configuration", err)
			return fmt.Errorf("%w: %w", ErrReconfigFailed, err)
		}

		if l.persister != nil {
			if err := l.persister.Save(highest); err != nil {
				log.WithError(err).Error("replset: failed to persist newly installed configuration locally")
			}
		}

		l.setStatus(Started, "replica set started")
		return nil
	}
}

func (l *ConfigLoader) collect(ctx context.Context) []ConfigCandidate {
	sources := make([]ConfigSource, 0, 1+len(l.seeds))
	sources = append(sources, l.local)
	sources = append(sources, l.seeds...)

	candidates := make([]ConfigCandidate, len(sources))
	for i, src := range sources {
		candidates[i] = src.Query(ctx)
		if candidates[i].Err != nil {
			log.WithError(candidates[i].Err).WithField("source", i).Warn("replset: exception loading configuration from a source")
		}
	}
	return candidates
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
