package cluster

import (
	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
)

type options struct {
	bootstrap node.PeerID
	codec     string
	gossip    node.SchedulerConfig
	logger    log.Logger
}

func defaultOptions() options {
	return options{
		codec:  "json",
		gossip: node.DefaultSchedulerConfig(),
		logger: log.NewNopLogger(),
	}
}

type bootstrapOption node.PeerID

func (o bootstrapOption) apply(opts *options) {
	opts.bootstrap = node.PeerID(o)
}

// WithBootstrap configures the peer the node bootstraps from.
func WithBootstrap(peer node.PeerID) Option {
	return bootstrapOption(peer)
}

type codecOption string

func (o codecOption) apply(opts *options) {
	opts.codec = string(o)
}

// WithCodec configures the codec nodes encode messages with. Defaults to
// JSON.
func WithCodec(codec string) Option {
	return codecOption(codec)
}

type gossipOption struct {
	Gossip node.SchedulerConfig
}

func (o gossipOption) apply(opts *options) {
	opts.gossip = o.Gossip
}

// WithGossipConfig configures the scheduler intervals.
func WithGossipConfig(conf node.SchedulerConfig) Option {
	return gossipOption{Gossip: conf}
}

type loggerOption struct {
	Logger log.Logger
}

func (o loggerOption) apply(opts *options) {
	opts.logger = o.Logger
}

// WithLogger configures the logger. Defaults to no output.
func WithLogger(logger log.Logger) Option {
	return loggerOption{Logger: logger}
}

type Option interface {
	apply(*options)
}
