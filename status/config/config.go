package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/pflag"
)

type NodeConfig struct {
	// URL is the node URL.
	URL string `json:"url"`
}

func (c *NodeConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("missing url")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url: unsupported scheme: %s", u.Scheme)
	}
	return nil
}

type Config struct {
	Node NodeConfig `json:"node"`

	// Forward is the port of a node to forward requests to, via the
	// '/<port>/<path>' proxy of the node at URL.
	Forward int `json:"forward"`
}

func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if c.Forward < 0 {
		return fmt.Errorf("invalid forward: %d", c.Forward)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Node.URL,
		"node.url",
		"http://localhost:5000",
		`
Node URL. Status requests are sent to this node.`,
	)
	fs.IntVar(
		&c.Forward,
		"forward",
		0,
		`
Port of another node to inspect. The request is sent to '--node.url', which
proxies it to the node listening on the given port.`,
	)
}
