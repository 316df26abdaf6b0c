package node

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Port is the port the node listens on, which is also its ID.
	Port int `json:"port" yaml:"port"`

	// Bootstrap is the port of a peer to add on startup and on reset, or 0
	// for none.
	Bootstrap int `json:"bootstrap" yaml:"bootstrap"`

	// Name is a human readable name for the node. If empty a name is chosen
	// based on the port.
	Name string `json:"name" yaml:"name"`

	// SendTimeout bounds the time to deliver a message to a peer.
	SendTimeout time.Duration `json:"send_timeout" yaml:"send_timeout"`

	// BroadcastConcurrency is the maximum number of concurrent sends when
	// sending to every peer.
	BroadcastConcurrency int `json:"broadcast_concurrency" yaml:"broadcast_concurrency"`

	// EventLogSize is the number of recent events retained.
	EventLogSize int `json:"event_log_size" yaml:"event_log_size"`
}

func (c *Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("missing port")
	}
	if !PeerID(c.Port).Valid() {
		return fmt.Errorf("port must be between %d and %d: %d", MinPort, MaxPort, c.Port)
	}
	if c.Bootstrap != 0 {
		if !PeerID(c.Bootstrap).Valid() {
			return fmt.Errorf("bootstrap must be between %d and %d: %d", MinPort, MaxPort, c.Bootstrap)
		}
		if c.Bootstrap == c.Port {
			return fmt.Errorf("bootstrap cannot be the node's own port")
		}
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("missing send timeout")
	}
	if c.BroadcastConcurrency <= 0 {
		return fmt.Errorf("missing broadcast concurrency")
	}
	if c.EventLogSize <= 0 {
		return fmt.Errorf("missing event log size")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(
		&c.Port,
		"node.port",
		c.Port,
		`
The port to listen on, which also identifies the node to its peers.

Must be at least 1024.`,
	)
	fs.IntVar(
		&c.Bootstrap,
		"node.bootstrap",
		c.Bootstrap,
		`
The port of an existing node to use as the initial peer.

The bootstrap peer is added again whenever the node is reset.`,
	)
	fs.StringVar(
		&c.Name,
		"node.name",
		c.Name,
		`
A human readable name for the node.

By default a name is chosen based on the port.`,
	)
	fs.DurationVar(
		&c.SendTimeout,
		"node.send-timeout",
		c.SendTimeout,
		`
The maximum time to wait for a peer to accept a message.

Messages that time out are logged and dropped. They are not retried.`,
	)
	fs.IntVar(
		&c.BroadcastConcurrency,
		"node.broadcast-concurrency",
		c.BroadcastConcurrency,
		`
The maximum number of peers to send to concurrently when sending a message to
every known peer.`,
	)
	fs.IntVar(
		&c.EventLogSize,
		"node.event-log-size",
		c.EventLogSize,
		`
The number of recent sent and received messages to retain for inspection.`,
	)
}

type SchedulerConfig struct {
	// ProbeInterval is the interval to probe every known peer.
	ProbeInterval time.Duration `json:"probe_interval" yaml:"probe_interval"`

	// EvictInterval is the interval to check for stale peers.
	EvictInterval time.Duration `json:"evict_interval" yaml:"evict_interval"`

	// StaleThreshold is the duration after which a peer that hasn't been
	// heard from is evicted.
	StaleThreshold time.Duration `json:"stale_threshold" yaml:"stale_threshold"`

	// PropagateInterval is the interval to generate and flood a new value.
	PropagateInterval time.Duration `json:"propagate_interval" yaml:"propagate_interval"`

	// PropagateTTL is the hop budget of generated values.
	PropagateTTL int `json:"propagate_ttl" yaml:"propagate_ttl"`

	// MaxJitter is the upper bound of the random delay before each task
	// starts.
	MaxJitter time.Duration `json:"max_jitter" yaml:"max_jitter"`
}

func (c *SchedulerConfig) Validate() error {
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("missing probe interval")
	}
	if c.EvictInterval <= 0 {
		return fmt.Errorf("missing evict interval")
	}
	if c.StaleThreshold <= 0 {
		return fmt.Errorf("missing stale threshold")
	}
	if c.PropagateInterval <= 0 {
		return fmt.Errorf("missing propagate interval")
	}
	if c.PropagateTTL < 0 {
		return fmt.Errorf("propagate ttl cannot be negative")
	}
	if c.MaxJitter < 0 {
		return fmt.Errorf("max jitter cannot be negative")
	}
	return nil
}

func (c *SchedulerConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.DurationVar(
		&c.ProbeInterval,
		"gossip.probe-interval",
		c.ProbeInterval,
		`
The interval to send a probe to every known peer.`,
	)
	fs.DurationVar(
		&c.EvictInterval,
		"gossip.evict-interval",
		c.EvictInterval,
		`
The interval to check for and evict stale peers.`,
	)
	fs.DurationVar(
		&c.StaleThreshold,
		"gossip.stale-threshold",
		c.StaleThreshold,
		`
The duration without hearing from a peer before it is evicted.

Should be larger than the probe interval, otherwise healthy peers may be
evicted between probes.`,
	)
	fs.DurationVar(
		&c.PropagateInterval,
		"gossip.propagate-interval",
		c.PropagateInterval,
		`
The interval to generate the next Mersenne prime and send it to every known
peer.`,
	)
	fs.IntVar(
		&c.PropagateTTL,
		"gossip.propagate-ttl",
		c.PropagateTTL,
		`
The number of hops a generated value may be forwarded.`,
	)
	fs.DurationVar(
		&c.MaxJitter,
		"gossip.max-jitter",
		c.MaxJitter,
		`
The maximum random delay before starting each periodic task, which avoids
nodes started together from synchronising.`,
	)
}

// DefaultConfig returns the node configuration with default values.
func DefaultConfig() Config {
	return Config{
		SendTimeout:          time.Second * 5,
		BroadcastConcurrency: 16,
		EventLogSize:         1000,
	}
}

// DefaultSchedulerConfig returns the scheduler configuration with default
// values, in units of one second.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ProbeInterval:     time.Second * 5,
		EvictInterval:     time.Second,
		StaleThreshold:    time.Second * 10,
		PropagateInterval: time.Second * 10,
		PropagateTTL:      2,
		MaxJitter:         time.Second * 2,
	}
}
