// Package bootstrap coordinates the two-phase startup sequence of a fleet
// of processes sharing one database and a set of local volumes.
//
// The cluster phase (migrations, cluster hooks) runs exactly once per
// deployment, guarded by a cluster-wide lock and a shared readiness flag.
// The node phase (asset collection, node hooks) runs exactly once per node
// per deployment, guarded by a local lock and a marker file.
// Every other process waits instead of racing or duplicating the work.
package bootstrap

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

// ReadinessStore records whether the cluster phase has completed for a run ID.
type ReadinessStore interface {
	IsReady(ctx context.Context, runID string) (bool, error)
	SetReady(ctx context.Context, runID string) error
}

// ClusterLocker grants the named cluster-wide lock to exactly one caller at a time.
// Acquisition is bounded by the timeout, a TimeoutError is returned when it elapses
// and the body never runs. The lock is released on every exit path of the body.
type ClusterLocker interface {
	WithLock(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error
}

// NodeState persists the per-node completion marker and provides the companion local lock.
// Create must be atomic with respect to concurrent creators, Exists is a lock-free fast path.
type NodeState interface {
	Exists(runID string) (bool, error)
	Create(runID string) error
	WithLock(ctx context.Context, runID string, timeout time.Duration, fn func(ctx context.Context) error) error
}

// DatabaseProber attempts one connection to the shared database.
type DatabaseProber interface {
	Ping(ctx context.Context) error
}

// ProberFunc adapts a function to the DatabaseProber interface.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// CoreStep is an external collaborator, for example the migration runner
// or the static assets collector. A nil step is a no-op.
type CoreStep func(ctx context.Context) error

type dependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
	ReadinessStore() ReadinessStore
	ClusterLocker() ClusterLocker
	NodeState() NodeState
	DatabaseProber() DatabaseProber
}

// Orchestrator composes the stores, locks and hooks into the two init phases.
// It holds no global state, all collaborators are injected.
type Orchestrator struct {
	clock      clockwork.Clock
	logger     log.Logger
	config     Config
	readiness  ReadinessStore
	locker     ClusterLocker
	nodes      NodeState
	prober     DatabaseProber
	migrator   CoreStep
	collector  CoreStep
	components Components
}

type Option func(o *Orchestrator)

// WithMigrator sets the cluster-phase core step.
func WithMigrator(v CoreStep) Option {
	return func(o *Orchestrator) {
		o.migrator = v
	}
}

// WithCollector sets the node-phase core step.
func WithCollector(v CoreStep) Option {
	return func(o *Orchestrator) {
		o.collector = v
	}
}

// WithComponents sets the ordered list of the host application components.
func WithComponents(v Components) Option {
	return func(o *Orchestrator) {
		o.components = v
	}
}

func NewOrchestrator(d dependencies, cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		clock:     d.Clock(),
		logger:    d.Logger().WithComponent("orchestrator"),
		config:    cfg,
		readiness: d.ReadinessStore(),
		locker:    d.ClusterLocker(),
		nodes:     d.NodeState(),
		prober:    d.DatabaseProber(),
	}
	for _, o2 := range opts {
		o2(o)
	}
	return o, nil
}

// RunClusterInit executes the cluster phase.
//
// The readiness flag is checked before and inside the lock. The outer check is
// the cheap skip for all but one process in the fleet, the inner check closes
// the race between processes that all saw "not ready" and queued on the lock.
func (o *Orchestrator) RunClusterInit(ctx context.Context, runID string) error {
	logger := o.logger.With(attribute.String("runId", runID))
	logger.Infof(ctx, `starting cluster init, run ID "%s"`, runID)

	if err := o.waitForDatabase(ctx, logger); err != nil {
		return err
	}

	if ready, err := o.readiness.IsReady(ctx, runID); err != nil {
		return errors.PrefixError(err, "cannot read readiness flag")
	} else if ready {
		logger.Info(ctx, "cluster init already done")
		return nil
	}

	return o.locker.WithLock(ctx, o.config.LockName, o.config.Timeout, func(ctx context.Context) error {
		if ready, err := o.readiness.IsReady(ctx, runID); err != nil {
			return errors.PrefixError(err, "cannot read readiness flag")
		} else if ready {
			logger.Info(ctx, "cluster init already done, checked inside lock")
			return nil
		}

		if o.migrator != nil {
			logger.Info(ctx, "running migrations")
			if err := o.migrator(ctx); err != nil {
				return InfrastructureError{Err: errors.PrefixError(err, "migrations failed")}
			}
		}

		if err := o.components.RunClusterHooks(ctx, logger); err != nil {
			return InfrastructureError{Err: err}
		}

		// Still inside the lock, so the flag is only ever set by the lock holder.
		if err := o.readiness.SetReady(ctx, runID); err != nil {
			return InfrastructureError{Err: errors.PrefixError(err, "cannot set readiness flag")}
		}

		logger.Info(ctx, "cluster init done")
		return nil
	})
}

// RunNodeInit executes the node phase.
// It blocks until the cluster phase has completed for the runID.
// The marker is checked before and inside the node lock, see RunClusterInit.
func (o *Orchestrator) RunNodeInit(ctx context.Context, runID string, fatalOnError bool) error {
	logger := o.logger.With(attribute.String("runId", runID))
	logger.Infof(ctx, `starting node init, run ID "%s"`, runID)

	if err := o.waitForReady(ctx, logger, runID); err != nil {
		return err
	}

	if exists, err := o.nodes.Exists(runID); err != nil {
		return errors.PrefixError(err, "cannot check node marker")
	} else if exists {
		logger.Info(ctx, "node init already done, marker exists")
		return nil
	}

	return o.nodes.WithLock(ctx, runID, o.config.Timeout, func(ctx context.Context) error {
		if exists, err := o.nodes.Exists(runID); err != nil {
			return errors.PrefixError(err, "cannot check node marker")
		} else if exists {
			logger.Info(ctx, "node init already done, checked inside lock")
			return nil
		}

		if o.collector != nil {
			logger.Info(ctx, "collecting assets")
			if err := o.collector(ctx); err != nil {
				return InfrastructureError{Err: errors.PrefixError(err, "asset collection failed")}
			}
		}

		if err := o.components.RunNodeHooks(ctx, logger, fatalOnError); err != nil {
			return err
		}

		// Created only after all the work above finished.
		if err := o.nodes.Create(runID); err != nil {
			return errors.PrefixError(err, "cannot create node marker")
		}

		logger.Info(ctx, "node init done")
		return nil
	})
}

// Run executes both phases sequentially in one process.
func (o *Orchestrator) Run(ctx context.Context, runID string, fatalOnError bool) error {
	if err := o.RunClusterInit(ctx, runID); err != nil {
		return err
	}
	return o.RunNodeInit(ctx, runID, fatalOnError)
}

// WaitForDatabase blocks until the shared database is reachable,
// polling at the configured interval, bounded by the configured timeout.
func (o *Orchestrator) WaitForDatabase(ctx context.Context) error {
	return o.waitForDatabase(ctx, o.logger)
}

// WaitForReady blocks until the readiness flag is set for the runID,
// polling at the configured interval, bounded by the configured timeout.
func (o *Orchestrator) WaitForReady(ctx context.Context, runID string) error {
	return o.waitForReady(ctx, o.logger.With(attribute.String("runId", runID)), runID)
}

func (o *Orchestrator) waitForDatabase(ctx context.Context, logger log.Logger) error {
	start := o.clock.Now()
	var lastErr error
	for {
		if err := o.prober.Ping(ctx); err == nil {
			logger.Info(ctx, "database connection established")
			return nil
		} else {
			lastErr = err
		}

		if elapsed := o.clock.Since(start); elapsed >= o.config.Timeout {
			return TimeoutError{Op: "database wait", Timeout: o.config.Timeout, Elapsed: elapsed, Err: lastErr}
		}

		logger.Debugf(ctx, "waiting for database: %s", lastErr)
		select {
		case <-ctx.Done():
			return errors.PrefixError(ctx.Err(), "database wait cancelled")
		case <-o.clock.After(o.config.PollInterval):
		}
	}
}

func (o *Orchestrator) waitForReady(ctx context.Context, logger log.Logger, runID string) error {
	start := o.clock.Now()
	logger.Info(ctx, "waiting for cluster readiness")
	for {
		if ready, err := o.readiness.IsReady(ctx, runID); err != nil {
			return errors.PrefixError(err, "cannot read readiness flag")
		} else if ready {
			logger.Info(ctx, "cluster is ready")
			return nil
		}

		if elapsed := o.clock.Since(start); elapsed >= o.config.Timeout {
			return TimeoutError{Op: "readiness wait", Timeout: o.config.Timeout, Elapsed: elapsed}
		}

		logger.Debug(ctx, "waiting for cluster readiness")
		select {
		case <-ctx.Done():
			return errors.PrefixError(ctx.Err(), "readiness wait cancelled")
		case <-o.clock.After(o.config.PollInterval):
		}
	}
}
