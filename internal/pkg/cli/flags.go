package cli

import (
	"github.com/spf13/pflag"

	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/distlock"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/nodemarker"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap/readiness"
	"github.com/fleetinit/fleetinit/internal/pkg/service/common/etcdclient"
)

// Flags groups all persistent flags of the command.
// Each flag can also be set by the FLEETINIT_* env variable, see bindEnvs.
type Flags struct {
	Verbose      bool
	RunID        string
	FatalOnError bool
	DBAddr       string
	MigrateCmd   string
	CollectCmd   string
	Bootstrap    bootstrap.Config
	Etcd         etcdclient.Config
	Readiness    readiness.Config
	Lock         distlock.Config
	Marker       nodemarker.Config
}

func NewFlags() *Flags {
	return &Flags{
		Bootstrap: bootstrap.NewConfig(),
		Etcd:      etcdclient.NewConfig(),
		Readiness: readiness.NewConfig(),
		Lock:      distlock.NewConfig(),
		Marker:    nodemarker.NewConfig(),
	}
}

func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.Verbose, "verbose", "v", f.Verbose, "enable debug messages.")
	fs.StringVar(&f.RunID, "run-id", f.RunID, "deployment run ID, derived from the working directory if empty.")
	fs.BoolVar(&f.FatalOnError, "fatal-on-error", f.FatalOnError, "a failed node hook aborts the node init.")
	fs.StringVar(&f.DBAddr, "db-addr", f.DBAddr, "host:port of the shared database, the etcd endpoint is probed if empty.")
	fs.StringVar(&f.MigrateCmd, "migrate-cmd", f.MigrateCmd, "shell command running the database migrations.")
	fs.StringVar(&f.CollectCmd, "collect-cmd", f.CollectCmd, "shell command collecting the node local assets.")
	f.Bootstrap.Flags(fs)
	f.Etcd.Flags(fs)
	f.Readiness.Flags(fs)
	f.Marker.Flags(fs)
}
