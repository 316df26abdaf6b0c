package cluster

import (
	"sync"

	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/gossiptest/cluster/config"
	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
)

// Manager runs a cluster of local nodes. Each added node bootstraps from the
// most recently added node.
type Manager struct {
	nodes []*Node

	mu sync.Mutex

	logger log.Logger
}

func NewManager(opts ...Option) *Manager {
	options := defaultOptions()
	for _, o := range opts {
		o.apply(&options)
	}

	return &Manager{
		logger: options.logger.WithSubsystem("cluster.manager"),
	}
}

// Update adds or removes nodes to match the configured number of nodes.
func (m *Manager) Update(config *config.Config) error {
	m.logger.Info("update", zap.Any("config", config))

	m.mu.Lock()
	defer m.mu.Unlock()

	// Update the active nodes to ensure we have the correct number.
	if config.Nodes > len(m.nodes) {
		added := config.Nodes - len(m.nodes)
		for i := 0; i != added; i++ {
			if err := m.addNodeLocked(config); err != nil {
				return err
			}
		}
	} else if len(m.nodes) > config.Nodes {
		removed := len(m.nodes) - config.Nodes
		for i := 0; i != removed; i++ {
			m.removeNodeLocked()
		}
	}
	return nil
}

func (m *Manager) Nodes() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy nodes to avoid race conditions when m.nodes is updated.
	var nodes []*Node
	nodes = append(nodes, m.nodes...)
	return nodes
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.nodes)
	for i := 0; i != removed; i++ {
		m.removeNodeLocked()
	}
}

func (m *Manager) addNodeLocked(config *config.Config) error {
	var bootstrap node.PeerID
	if len(m.nodes) > 0 {
		bootstrap = m.nodes[len(m.nodes)-1].ID()
	}

	n, err := NewNode(
		WithBootstrap(bootstrap),
		WithCodec(config.Codec),
		WithGossipConfig(config.Gossip),
		WithLogger(m.logger),
	)
	if err != nil {
		return err
	}
	n.Start()

	m.logger.Info(
		"added node",
		zap.Int("id", int(n.ID())),
		zap.Int("bootstrap", int(bootstrap)),
	)

	m.nodes = append(m.nodes, n)
	return nil
}

func (m *Manager) removeNodeLocked() {
	// Remove the oldest node.
	n := m.nodes[0]
	m.nodes = m.nodes[1:]
	n.Stop()

	m.logger.Info("removed node", zap.Int("id", int(n.ID())))
}
