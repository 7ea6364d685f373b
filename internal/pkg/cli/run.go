package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
)

func runCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run both init phases, the usual entrypoint step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runPhase(func(ctx context.Context, o *bootstrap.Orchestrator) error {
				return o.Run(ctx, root.flags.RunID, root.flags.FatalOnError)
			})
		},
	}
}
