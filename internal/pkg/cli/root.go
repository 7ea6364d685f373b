// Package cli implements the fleetinit command.
//
// The command is a one-shot coordinator invoked from container entrypoints.
// Every persistent flag can also be set by the corresponding FLEETINIT_*
// env variable or an .env file in the working directory.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fleetinit/fleetinit/internal/pkg/env"
	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

// Exit codes of the command.
// A timeout is recoverable, the entrypoint may retry, so it gets its own code.
const (
	ExitCodeOk      = 0
	ExitCodeError   = 1
	ExitCodeTimeout = 2
)

type RootCommand struct {
	*cobra.Command
	logger log.Logger
	osEnvs *env.Map
	envs   *env.Map
	flags  *Flags
	stdout io.Writer
	stderr io.Writer
}

func NewRootCommand(stdout io.Writer, stderr io.Writer, osEnvs *env.Map) *RootCommand {
	root := &RootCommand{
		logger: log.NewCliLogger(stdout, stderr, false),
		osEnvs: osEnvs,
		flags:  NewFlags(),
		stdout: stdout,
		stderr: stderr,
	}

	root.Command = &cobra.Command{
		Use:           "fleetinit",
		Short:         "Coordinated startup initialization for a fleet of processes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.flags.Bind(root.PersistentFlags())
	root.AddCommand(
		clusterCommand(root),
		nodeCommand(root),
		runCommand(root),
		readyCommand(root),
	)

	return root
}

// Execute runs the command and translates the error to the exit code.
func (root *RootCommand) Execute() int {
	defer func() {
		_ = root.logger.Sync()
	}()

	if err := root.Command.Execute(); err != nil {
		root.logger.Errorf(context.Background(), "%s", err)
		var timeoutErr bootstrap.TimeoutError
		if errors.As(err, &timeoutErr) {
			return ExitCodeTimeout
		}
		return ExitCodeError
	}
	return ExitCodeOk
}

// setup loads env files, applies env fallbacks to the flags,
// creates the logger and resolves the run ID.
func (root *RootCommand) setup(cmd *cobra.Command) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return errors.PrefixError(err, "cannot get working directory")
	}

	envs, err := env.LoadDotEnv(root.osEnvs, workingDir)
	if err != nil {
		return errors.PrefixError(err, "cannot load env files")
	}
	root.envs = envs

	if err := bindEnvs(cmd.Flags(), envs); err != nil {
		return err
	}

	root.logger = log.NewCliLogger(root.stdout, root.stderr, root.flags.Verbose)
	if root.flags.RunID == "" {
		root.flags.RunID = bootstrap.ResolveRunID(envs, workingDir)
	}
	return nil
}

// bindEnvs sets flags not used on the command line from the env variables,
// for example "etcd-endpoint" from FLEETINIT_ETCD_ENDPOINT.
func bindEnvs(fs *pflag.FlagSet, envs env.Provider) error {
	naming := env.NewNamingConvention()
	var errs []error
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed {
			return
		}
		envName := naming.Replace(flag.Name)
		if value, found := envs.Lookup(envName); found {
			if err := fs.Set(flag.Name, value); err != nil {
				errs = append(errs, errors.PrefixErrorf(err, `invalid env variable "%s"`, envName))
			}
		}
	})
	return errors.Join(errs...)
}

// runPhase wires the infrastructure and runs one orchestrator phase.
func (root *RootCommand) runPhase(fn func(ctx context.Context, o *bootstrap.Orchestrator) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := newProvider(ctx, root.logger, root.flags)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	o, err := p.orchestrator()
	if err != nil {
		return err
	}

	if err := fn(ctx, o); err != nil {
		return errors.PrefixErrorf(err, `init failed, run ID "%s"`, root.flags.RunID)
	}
	return nil
}
