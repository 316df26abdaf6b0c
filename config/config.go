package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
	"github.com/andydunstall/primegossip/server"
	"github.com/andydunstall/primegossip/transport"
)

// Config is the configuration of a gossip node process.
type Config struct {
	Node      node.Config          `json:"node" yaml:"node"`
	Gossip    node.SchedulerConfig `json:"gossip" yaml:"gossip"`
	Transport transport.Config     `json:"transport" yaml:"transport"`
	Server    server.Config        `json:"server" yaml:"server"`
	Log       log.Config           `json:"log" yaml:"log"`

	// GracePeriod is the duration to gracefully shutdown the node. During
	// the grace period, the scheduler is stopped and the server waits for
	// active requests to complete.
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`
}

// Default returns the configuration with default values. The node port has
// no default so must be set.
func Default() Config {
	return Config{
		Node:      node.DefaultConfig(),
		Gossip:    node.DefaultSchedulerConfig(),
		Transport: transport.DefaultConfig(),
		Server:    server.DefaultConfig(),
		Log: log.Config{
			Level: "info",
		},
		GracePeriod: time.Second * 30,
	}
}

func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if err := c.Gossip.Validate(); err != nil {
		return fmt.Errorf("gossip: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.GracePeriod == 0 {
		return fmt.Errorf("missing grace period")
	}
	return nil
}

// RegisterFlags registers the flags for each field, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	c.Node.RegisterFlags(fs)
	c.Gossip.RegisterFlags(fs)
	c.Transport.RegisterFlags(fs)
	c.Server.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)

	fs.DurationVar(
		&c.GracePeriod,
		"grace-period",
		c.GracePeriod,
		`
Maximum duration after a shutdown signal is received (SIGTERM or
SIGINT) to gracefully shutdown the node.

The node stops its periodic tasks, closes open event streams, then waits for
pending requests to complete before exiting.

If the grace period is exceeded the node exits.`,
	)
}
