package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/readiness"
	"github.com/fleetinit/fleetinit/internal/pkg/service/common/etcdclient"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

// readyCommand is the diagnostic surface over the readiness flag.
func readyCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "Inspect or modify the readiness flag of the current run ID.",
	}
	cmd.AddCommand(
		readyStatusCommand(root),
		readySetCommand(root),
		readyClearCommand(root),
	)
	return cmd
}

func readyStatusCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Exit 0 if the cluster phase has completed, non-zero otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withReadinessStore(func(ctx context.Context, store *readiness.Store) error {
				runID := root.flags.RunID
				if ready, err := store.IsReady(ctx, runID); err != nil {
					return err
				} else if !ready {
					return errors.Errorf(`run "%s" is not ready`, runID)
				}
				root.logger.Infof(ctx, `run "%s" is ready`, runID)
				return nil
			})
		},
	}
}

func readySetCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Mark the cluster phase as completed, bypassing the init.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withReadinessStore(func(ctx context.Context, store *readiness.Store) error {
				return store.SetReady(ctx, root.flags.RunID)
			})
		},
	}
}

func readyClearCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the readiness flag, forcing the next cluster init to run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withReadinessStore(func(ctx context.Context, store *readiness.Store) error {
				return store.ClearReady(ctx, root.flags.RunID)
			})
		},
	}
}

// withReadinessStore connects to etcd for the ready subcommands,
// no lock session or node state is needed there.
func (root *RootCommand) withReadinessStore(fn func(ctx context.Context, store *readiness.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := etcdclient.New(ctx, root.logger, root.flags.Etcd)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	store, err := readiness.NewStore(root.logger, client, root.flags.Readiness)
	if err != nil {
		return err
	}
	return fn(ctx, store)
}
