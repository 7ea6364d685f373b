package bootstrap

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

const (
	DefaultTimeout      = 300 * time.Second
	DefaultPollInterval = time.Second
	DefaultLockName     = "cluster-init"
)

type Config struct {
	// Timeout bounds each blocking point: database wait, readiness wait and lock acquisitions.
	Timeout time.Duration
	// PollInterval is the granularity of the wait loops.
	PollInterval time.Duration
	// LockName names the cluster-wide lock guarding the cluster phase.
	LockName string
}

func NewConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		LockName:     DefaultLockName,
	}
}

func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "timeout for lock acquisition and waits.")
	fs.StringVar(&c.LockName, "lock-name", c.LockName, "name of the cluster init lock.")
}

func (c *Config) Normalize() {
	c.LockName = strings.Trim(c.LockName, " /")
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.LockName == "" {
		return errors.New("lock name is not set")
	}
	return nil
}
