package transport

import (
	"fmt"

	"github.com/spf13/pflag"
)

type Config struct {
	// PeerHost is the host every peer listens on. Peers are identified by
	// port only so all peers must share a host.
	PeerHost string `json:"peer_host" yaml:"peer_host"`

	// Codec is the encoding of sent messages, either 'json' or 'msgpack'.
	// Received messages are decoded based on their content type.
	Codec string `json:"codec" yaml:"codec"`
}

func DefaultConfig() Config {
	return Config{
		PeerHost: "localhost",
		Codec:    "json",
	}
}

func (c *Config) Validate() error {
	if c.PeerHost == "" {
		return fmt.Errorf("missing peer host")
	}
	if _, err := CodecByName(c.Codec); err != nil {
		return err
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.PeerHost,
		"transport.peer-host",
		c.PeerHost,
		`
The host peers listen on. A peer with ID 5001 is reached at
'http://<peer-host>:5001'.`,
	)
	fs.StringVar(
		&c.Codec,
		"transport.codec",
		c.Codec,
		`
Encoding of sent messages, either 'json' or 'msgpack'.

Received messages are always decoded based on the request content type, so
nodes using different codecs can still communicate.`,
	)
}
