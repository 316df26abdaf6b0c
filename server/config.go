package server

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// BindHost is the host the server listens on. The port is the node
	// port.
	BindHost string `json:"bind_host" yaml:"bind_host"`

	// ProxyTimeout is the timeout for requests proxied to other nodes.
	ProxyTimeout time.Duration `json:"proxy_timeout" yaml:"proxy_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BindHost:     "0.0.0.0",
		ProxyTimeout: time.Second * 15,
	}
}

func (c *Config) Validate() error {
	if c.BindHost == "" {
		return fmt.Errorf("missing bind host")
	}
	if c.ProxyTimeout <= 0 {
		return fmt.Errorf("proxy timeout must be positive")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.BindHost,
		"server.bind-host",
		c.BindHost,
		`
The host to listen for HTTP connections on. The server listens on the node
port.`,
	)
	fs.DurationVar(
		&c.ProxyTimeout,
		"server.proxy-timeout",
		c.ProxyTimeout,
		`
Timeout for requests proxied to other nodes via '/<port>/<path>'.`,
	)
}
