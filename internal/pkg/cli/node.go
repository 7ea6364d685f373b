package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
)

func nodeCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Run the node phase: asset collection, node hooks, completion marker.",
		Long: `Run the node phase of the startup initialization.

The phase waits for the cluster phase to complete and then runs exactly
once per node per deployment, guarded by a local lock and a marker file
on the node volume.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runPhase(func(ctx context.Context, o *bootstrap.Orchestrator) error {
				return o.RunNodeInit(ctx, root.flags.RunID, root.flags.FatalOnError)
			})
		},
	}
}
