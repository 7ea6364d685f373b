// Package distlock provides the cluster-wide lock, backed by an etcd mutex.
//
// Locks live under a common prefix and are bound to a session lease,
// so a crashed holder releases the lock when the lease expires.
package distlock

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/fleetinit/fleetinit/internal/pkg/log"
	"github.com/fleetinit/fleetinit/internal/pkg/service/bootstrap"
	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

const (
	DefaultPrefix = "runtime/lock"
	// DefaultTTLSeconds is the session lease TTL, a crashed holder blocks others for at most this long.
	DefaultTTLSeconds = 15

	unlockTimeout = 10 * time.Second
)

type Config struct {
	Prefix     string
	TTLSeconds int
}

func NewConfig() Config {
	return Config{
		Prefix:     DefaultPrefix,
		TTLSeconds: DefaultTTLSeconds,
	}
}

func (c *Config) Normalize() {
	c.Prefix = strings.Trim(c.Prefix, " /")
}

func (c *Config) Validate() error {
	if c.Prefix == "" {
		return errors.New("lock prefix is not set")
	}
	if c.TTLSeconds <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

// Provider creates cluster-wide locks on top of one etcd session.
type Provider struct {
	logger  log.Logger
	client  *etcd.Client
	config  Config
	session *concurrency.Session
}

// NewProvider creates the etcd session, with retries.
func NewProvider(ctx context.Context, logger log.Logger, client *etcd.Client, cfg Config) (*Provider, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.WithComponent("distlock")
	startTime := time.Now()

	var session *concurrency.Session
	err := backoff.Retry(func() error {
		s, err := concurrency.NewSession(client, concurrency.WithTTL(cfg.TTLSeconds), concurrency.WithContext(ctx))
		if err != nil {
			logger.Warnf(ctx, "cannot create etcd session: %s", err)
			return err
		}
		session = s
		return nil
	}, backoff.WithContext(newSessionBackoff(), ctx))
	if err != nil {
		return nil, errors.PrefixError(err, "cannot create etcd session")
	}

	logger.Infof(ctx, "created etcd session | %s", time.Since(startTime))
	return &Provider{logger: logger, client: client, config: cfg, session: session}, nil
}

// Close releases the session lease, which releases all locks held by this process.
func (p *Provider) Close(ctx context.Context) error {
	if err := p.session.Close(); err != nil {
		return errors.PrefixError(err, "cannot close etcd session")
	}
	p.logger.Info(ctx, "closed etcd session")
	return nil
}

// WithLock runs fn while holding the named lock.
//
// Acquisition is bounded by the timeout, on expiry a bootstrap.TimeoutError
// is returned and fn never runs. Once acquired, the lock is released on
// every exit path of fn.
func (p *Provider) WithLock(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) (err error) {
	key := p.config.Prefix + "/" + name
	mtx := concurrency.NewMutex(p.session, key)

	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.logger.Debugf(ctx, `acquiring lock "%s"`, key)
	if lockErr := mtx.Lock(acquireCtx); lockErr != nil {
		if errors.Is(lockErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return bootstrap.TimeoutError{Op: "lock acquisition", Timeout: timeout, Elapsed: time.Since(start)}
		}
		return errors.PrefixErrorf(lockErr, `cannot acquire lock "%s"`, key)
	}
	p.logger.Debugf(ctx, `acquired lock "%s"`, key)

	defer func() {
		// Release must work even if the caller context is already done.
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
		defer cancel()
		if unlockErr := mtx.Unlock(unlockCtx); unlockErr != nil {
			unlockErr = errors.PrefixErrorf(unlockErr, `cannot release lock "%s"`, key)
			if err == nil {
				err = unlockErr
			} else {
				p.logger.Errorf(ctx, "%s", unlockErr)
			}
		} else {
			p.logger.Debugf(ctx, `released lock "%s"`, key)
		}
	}()

	return fn(ctx)
}

func newSessionBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0.2
	b.InitialInterval = 50 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = time.Minute // a one-shot process should not retry forever
	b.Reset()
	return b
}
