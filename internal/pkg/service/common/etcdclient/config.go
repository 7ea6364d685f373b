package etcdclient

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/fleetinit/fleetinit/internal/pkg/utils/errors"
)

const (
	DefaultConnectTimeout    = 30 * time.Second
	DefaultKeepAliveTimeout  = 5 * time.Second
	DefaultKeepAliveInterval = 10 * time.Second
)

type Config struct {
	Endpoint          string
	Namespace         string
	Username          string
	Password          string
	ConnectTimeout    time.Duration
	KeepAliveTimeout  time.Duration
	KeepAliveInterval time.Duration
}

func NewConfig() Config {
	return Config{
		Endpoint:          "",
		Namespace:         "",
		Username:          "",
		Password:          "",
		ConnectTimeout:    DefaultConnectTimeout,
		KeepAliveTimeout:  DefaultKeepAliveTimeout,
		KeepAliveInterval: DefaultKeepAliveInterval,
	}
}

func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Endpoint, "etcd-endpoint", c.Endpoint, "etcd endpoint.")
	fs.StringVar(&c.Namespace, "etcd-namespace", c.Namespace, "etcd namespace.")
	fs.StringVar(&c.Username, "etcd-username", c.Username, "etcd username.")
	fs.StringVar(&c.Password, "etcd-password", c.Password, "etcd password.")
}

func (c *Config) Normalize() {
	c.Endpoint = strings.Trim(c.Endpoint, " /")
	c.Namespace = strings.Trim(c.Namespace, " /") + "/"
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("etcd endpoint is not set")
	}
	if c.Namespace == "/" {
		return errors.New("etcd namespace is not set")
	}
	return nil
}
