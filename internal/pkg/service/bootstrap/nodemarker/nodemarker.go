// Package nodemarker persists the per-node completion marker and provides
// the companion local lock.
//
// The marker is a file per (node, runID) pair on a local volume. It is created
// atomically after the node phase finished and is never deleted by normal
// operation. The lock is a flock on a sibling file, it guards the
// check-then-create sequence against concurrent processes on the same volume.
package nodemarker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/gofrs/uuid/v5"
	"github.com/spf13/pflag"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

const (
	DefaultDir = "/var/lib/fleetinit"

	markerFileFormat = "node-%s.complete"
	lockFileFormat   = "node-%s.lock"

	dirPerm         = 0o750
	markerFilePerm  = 0o640
	markerFileFlags = os.O_WRONLY | os.O_CREATE | os.O_EXCL

	lockRetryInterval = 100 * time.Millisecond
)

type Config struct {
	Dir string
}

func NewConfig() Config {
	return Config{
		Dir: DefaultDir,
	}
}

func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Dir, "marker-dir", c.Dir, "directory with node init markers, must be on a per-node volume.")
}

func (c *Config) Normalize() {
	if c.Dir != "" {
		c.Dir = filepath.Clean(c.Dir)
	}
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("marker directory is not set")
	}
	return nil
}

type Store struct {
	logger     log.Logger
	config     Config
	instanceID string
}

func NewStore(logger log.Logger, cfg Config) (*Store, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		logger:     logger.WithComponent("nodemarker"),
		config:     cfg,
		instanceID: uuid.Must(uuid.NewV4()).String(),
	}, nil
}

// MarkerPath returns the marker file path for the runID.
func (s *Store) MarkerPath(runID string) string {
	return filepath.Join(s.config.Dir, fmt.Sprintf(markerFileFormat, runID))
}

// Exists checks the marker presence. It needs no lock,
// creation is atomic and the marker is never deleted.
func (s *Store) Exists(runID string) (bool, error) {
	path := s.MarkerPath(runID)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, errors.PrefixErrorf(err, `cannot check node marker "%s"`, path)
	}
	return true, nil
}

// Create atomically creates the marker and its parent directory.
// A marker created by a concurrent process is not an error.
func (s *Store) Create(runID string) error {
	path := s.MarkerPath(runID)
	if err := os.MkdirAll(s.config.Dir, dirPerm); err != nil {
		return errors.PrefixErrorf(err, `cannot create marker directory "%s"`, s.config.Dir)
	}

	f, err := os.OpenFile(path, markerFileFlags, markerFilePerm)
	if errors.Is(err, os.ErrExist) {
		return nil
	} else if err != nil {
		return errors.PrefixErrorf(err, `cannot create node marker "%s"`, path)
	}
	defer f.Close()

	// Content is informational only, the marker presence is the fact.
	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().UTC().Format(time.RFC3339), s.instanceID)
	if err != nil {
		return errors.PrefixErrorf(err, `cannot write node marker "%s"`, path)
	}

	return nil
}

// WithLock runs fn while holding the node lock for the runID.
// Same contract as the cluster lock: bounded acquisition,
// bootstrap.TimeoutError on expiry, guaranteed release.
func (s *Store) WithLock(ctx context.Context, runID string, timeout time.Duration, fn func(ctx context.Context) error) (err error) {
	if err := os.MkdirAll(s.config.Dir, dirPerm); err != nil {
		return errors.PrefixErrorf(err, `cannot create marker directory "%s"`, s.config.Dir)
	}

	path := s.lockPath(runID)
	lock := flock.New(path)

	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debugf(ctx, `acquiring node lock "%s"`, path)
	locked, lockErr := lock.TryLockContext(acquireCtx, lockRetryInterval)
	if !locked {
		if errors.Is(lockErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return bootstrap.TimeoutError{Op: "node lock acquisition", Timeout: timeout, Elapsed: time.Since(start)}
		}
		return errors.PrefixErrorf(lockErr, `cannot acquire node lock "%s"`, path)
	}
	s.logger.Debugf(ctx, `acquired node lock "%s"`, path)

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			unlockErr = errors.PrefixErrorf(unlockErr, `cannot release node lock "%s"`, path)
			if err == nil {
				err = unlockErr
			} else {
				s.logger.Errorf(ctx, "%s", unlockErr)
			}
		} else {
			s.logger.Debugf(ctx, `released node lock "%s"`, path)
		}
	}()

	return fn(ctx)
}

func (s *Store) lockPath(runID string) string {
	return filepath.Join(s.config.Dir, fmt.Sprintf(lockFileFormat, runID))
}
