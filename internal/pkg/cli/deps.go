package cli

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/distlock"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/nodemarker"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/readiness"
	"github.com/fleetinit/fleetinit/internal/pkg/service/common/etcdclient"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/netutils"
)

const dbProbeTimeout = 2 * time.Second

// provider wires the concrete infrastructure for the orchestrator.
type provider struct {
	clock      clockwork.Clock
	logger     log.Logger
	flags      *Flags
	etcdClient *etcd.Client
	readiness  *readiness.Store
	locker     *distlock.Provider
	nodes      *nodemarker.Store
}

// newProvider connects to etcd and constructs the stores and locks.
func newProvider(ctx context.Context, logger log.Logger, flags *Flags) (*provider, error) {
	p := &provider{clock: clockwork.NewRealClock(), logger: logger, flags: flags}

	var err error
	if p.etcdClient, err = etcdclient.New(ctx, logger, flags.Etcd); err != nil {
		return nil, err
	}
	if p.readiness, err = readiness.NewStore(logger, p.etcdClient, flags.Readiness); err != nil {
		return nil, err
	}
	if p.locker, err = distlock.NewProvider(ctx, logger, p.etcdClient, flags.Lock); err != nil {
		_ = p.etcdClient.Close()
		return nil, err
	}
	if p.nodes, err = nodemarker.NewStore(logger, flags.Marker); err != nil {
		_ = p.locker.Close(ctx)
		_ = p.etcdClient.Close()
		return nil, err
	}

	return p, nil
}

func (p *provider) Close(ctx context.Context) {
	if err := p.locker.Close(ctx); err != nil {
		p.logger.Warnf(ctx, "%s", err)
	}
	if err := p.etcdClient.Close(); err != nil {
		p.logger.Warnf(ctx, "cannot close etcd client: %s", err)
	}
}

func (p *provider) Clock() clockwork.Clock {
	return p.clock
}

func (p *provider) Logger() log.Logger {
	return p.logger
}

func (p *provider) ReadinessStore() bootstrap.ReadinessStore {
	return p.readiness
}

func (p *provider) ClusterLocker() bootstrap.ClusterLocker {
	return p.locker
}

func (p *provider) NodeState() bootstrap.NodeState {
	return p.nodes
}

// DatabaseProber probes the database address, or the etcd endpoint
// when no database address is configured.
func (p *provider) DatabaseProber() bootstrap.DatabaseProber {
	addr := p.flags.DBAddr
	if addr == "" {
		addr = p.flags.Etcd.Endpoint
	}
	return bootstrap.ProberFunc(func(ctx context.Context) error {
		return netutils.DialProbe(ctx, addr, dbProbeTimeout)
	})
}

// orchestrator builds the orchestrator with the configured core steps.
func (p *provider) orchestrator() (*bootstrap.Orchestrator, error) {
	return bootstrap.NewOrchestrator(
		p, p.flags.Bootstrap,
		bootstrap.WithMigrator(shellStep(p.logger, "migrations", p.flags.MigrateCmd)),
		bootstrap.WithCollector(shellStep(p.logger, "asset collection", p.flags.CollectCmd)),
	)
}

// shellStep adapts a shell command to a core step. An empty command is a no-op.
func shellStep(logger log.Logger, name, command string) bootstrap.CoreStep {
	if command == "" {
		return nil
	}
	logger = logger.WithComponent("exec")
	return func(ctx context.Context) error {
		logger.Infof(ctx, `%s: running "%s"`, name, command)

		var output bytes.Buffer
		cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
		cmd.Stdout = &output
		cmd.Stderr = &output
		err := cmd.Run()

		for _, line := range strings.Split(strings.TrimRight(output.String(), "\n"), "\n") {
			if line != "" {
				logger.Infof(ctx, "%s: %s", name, line)
			}
		}
		return err
	}
}
