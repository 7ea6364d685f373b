// Package readiness stores the shared "cluster init completed" flag in etcd.
//
// The flag is written once per run ID with a TTL lease and then left to expire,
// it is never updated in place. All writers write the same value,
// so last-writer-wins is acceptable.
package readiness

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/pflag"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

const (
	DefaultPrefix = "runtime/ready"
	// DefaultTTL outlives container restarts but does not leak forever.
	DefaultTTL = 24 * time.Hour

	readyValue = "1"
)

type Config struct {
	Prefix string
	TTL    time.Duration
}

func NewConfig() Config {
	return Config{
		Prefix: DefaultPrefix,
		TTL:    DefaultTTL,
	}
}

func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Prefix, "readiness-prefix", c.Prefix, "etcd prefix of the readiness flags.")
	fs.DurationVar(&c.TTL, "readiness-ttl", c.TTL, "TTL of the readiness flag.")
}

func (c *Config) Normalize() {
	c.Prefix = strings.Trim(c.Prefix, " /")
}

func (c *Config) Validate() error {
	if c.Prefix == "" {
		return errors.New("readiness prefix is not set")
	}
	if c.TTL < time.Second {
		return errors.New("readiness TTL must be at least one second")
	}
	return nil
}

type Store struct {
	logger log.Logger
	client *etcd.Client
	config Config
}

func NewStore(logger log.Logger, client *etcd.Client, cfg Config) (*Store, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		logger: logger.WithComponent("readiness"),
		client: client,
		config: cfg,
	}, nil
}

// IsReady reads the flag, an absent or expired key means false.
func (s *Store) IsReady(ctx context.Context, runID string) (bool, error) {
	key := s.key(runID)
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return false, errors.PrefixErrorf(err, `cannot get readiness flag "%s"`, key)
	}
	return len(resp.Kvs) > 0 && string(resp.Kvs[0].Value) == readyValue, nil
}

// SetReady writes the flag with the configured TTL.
func (s *Store) SetReady(ctx context.Context, runID string) error {
	key := s.key(runID)

	lease, err := s.client.Grant(ctx, int64(s.config.TTL.Seconds()))
	if err != nil {
		return errors.PrefixErrorf(err, `cannot create lease for readiness flag "%s"`, key)
	}

	if _, err := s.client.Put(ctx, key, readyValue, etcd.WithLease(lease.ID)); err != nil {
		return errors.PrefixErrorf(err, `cannot set readiness flag "%s"`, key)
	}

	s.logger.Infof(ctx, `readiness flag set, run ID "%s"`, runID)
	return nil
}

// ClearReady deletes the flag. Used for manual reset and in tests.
func (s *Store) ClearReady(ctx context.Context, runID string) error {
	key := s.key(runID)
	if _, err := s.client.Delete(ctx, key); err != nil {
		return errors.PrefixErrorf(err, `cannot clear readiness flag "%s"`, key)
	}
	s.logger.Infof(ctx, `readiness flag cleared, run ID "%s"`, runID)
	return nil
}

func (s *Store) key(runID string) string {
	return s.config.Prefix + "/" + runID
}
