package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
	"github.com/andydunstall/primegossip/transport"
)

type Config struct {
	// Nodes is the number of nodes in the cluster.
	Nodes int `json:"nodes" yaml:"nodes"`

	// Codec is the codec each node uses to encode messages.
	Codec string `json:"codec" yaml:"codec"`

	Gossip node.SchedulerConfig `json:"gossip" yaml:"gossip"`

	Log log.Config `json:"log" yaml:"log"`
}

func Default() *Config {
	return &Config{
		Nodes:  3,
		Codec:  "json",
		Gossip: node.DefaultSchedulerConfig(),
		Log: log.Config{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	if c.Nodes <= 0 {
		return fmt.Errorf("missing nodes")
	}
	if _, err := transport.CodecByName(c.Codec); err != nil {
		return err
	}
	if err := c.Gossip.Validate(); err != nil {
		return fmt.Errorf("gossip: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(
		&c.Nodes,
		"nodes",
		c.Nodes,
		`
The number of cluster nodes to start.`,
	)
	fs.StringVar(
		&c.Codec,
		"codec",
		c.Codec,
		`
The codec nodes use to encode messages, either 'json' or 'msgpack'.`,
	)

	c.Gossip.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)
}
