package bootstrap

import (
	"context"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

// Component is one unit of the host application participating in initialization.
// Implement ClusterInitializer and/or NodeInitializer to receive the callbacks,
// a component without them is skipped.
// Both callbacks must be idempotent, partial work from a crashed process may precede them.
type Component interface {
	Name() string
}

// ClusterInitializer runs once per cluster per deployment, under the cluster lock.
type ClusterInitializer interface {
	Component
	OnClusterInit(ctx context.Context) error
}

// NodeInitializer runs once per node per deployment, under the node lock.
type NodeInitializer interface {
	Component
	OnNodeInit(ctx context.Context) error
}

// Components is an ordered list, the order is caller-defined and preserved in both phases.
type Components []Component

// RunClusterHooks invokes OnClusterInit on each component in order.
// Any failure aborts the remaining hooks, the cluster phase must not
// be marked ready unless every hook succeeded.
func (v Components) RunClusterHooks(ctx context.Context, logger log.Logger) error {
	for _, c := range v {
		hook, ok := c.(ClusterInitializer)
		if !ok {
			continue
		}
		logger.Infof(ctx, `running cluster hook "%s"`, c.Name())
		if err := hook.OnClusterInit(ctx); err != nil {
			return errors.PrefixErrorf(err, `cluster hook "%s" failed`, c.Name())
		}
	}
	return nil
}

// RunNodeHooks invokes OnNodeInit on each component in order.
// A failing hook aborts the remaining hooks if fatalOnError is set,
// otherwise it is logged as a warning and the iteration continues.
func (v Components) RunNodeHooks(ctx context.Context, logger log.Logger, fatalOnError bool) error {
	for _, c := range v {
		hook, ok := c.(NodeInitializer)
		if !ok {
			continue
		}
		logger.Infof(ctx, `running node hook "%s"`, c.Name())
		if err := hook.OnNodeInit(ctx); err != nil {
			err = errors.PrefixErrorf(err, `node hook "%s" failed`, c.Name())
			if fatalOnError {
				return err
			}
			logger.Warnf(ctx, "%s", err)
		}
	}
	return nil
}
