package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
)

func clusterCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "cluster",
		Short: "Run the cluster phase: migrations, cluster hooks, readiness flag.",
		Long: `Run the cluster phase of the startup initialization.

The phase runs exactly once per deployment across the whole fleet,
guarded by a cluster-wide lock. Every other process waits for the
readiness flag and then exits successfully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runPhase(func(ctx context.Context, o *bootstrap.Orchestrator) error {
				return o.RunClusterInit(ctx, root.flags.RunID)
			})
		},
	}
}
