package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/pkg/log"
)

// BaselineValue is the best value of a node that has not yet seen any value.
var BaselineValue = NewValue(2)

var names = []string{
	"Francescoli", "Gallardo", "Labruna", "Cavenaghi", "Enzo Perez",
}

// State is a snapshot of the node state.
type State struct {
	ID              PeerID               `json:"port"`
	Name            string               `json:"name"`
	InstanceID      string               `json:"instance_id"`
	Peers           map[PeerID]time.Time `json:"peers"`
	BestValue       Value                `json:"biggest_prime"`
	BestValueSource PeerID               `json:"biggest_prime_sender"`
	MsgCounter      uint64               `json:"msg_id"`
	Awake           bool                 `json:"awake"`
	SeenMessages    int                  `json:"seen_messages"`
}

// Node is the local participant in the gossip network. It processes
// received messages, sends messages to peers, and owns all node state.
//
// Node is safe for concurrent use. Messages are never sent with the state
// mutex held.
type Node struct {
	id         PeerID
	name       string
	instanceID string
	bootstrap  PeerID

	peers           *peerRegistry
	dedup           *dedupCache
	bestValue       Value
	bestValueSource PeerID
	msgCounter      uint64
	awake           bool

	// mu protects the above fields.
	mu sync.Mutex

	transport            Transport
	sendTimeout          time.Duration
	broadcastConcurrency int

	events  *EventLog
	metrics *Metrics

	now    func() time.Time
	logger log.Logger
}

func New(conf *Config, transport Transport, opts ...Option) *Node {
	options := defaultOptions()
	for _, o := range opts {
		o.apply(&options)
	}

	name := conf.Name
	if name == "" {
		name = names[conf.Port%len(names)]
	}

	n := &Node{
		id:                   PeerID(conf.Port),
		name:                 name,
		instanceID:           uuid.NewString(),
		bootstrap:            PeerID(conf.Bootstrap),
		peers:                newPeerRegistry(),
		dedup:                newDedupCache(),
		bestValue:            BaselineValue,
		bestValueSource:      PeerID(conf.Port),
		awake:                true,
		transport:            transport,
		sendTimeout:          conf.SendTimeout,
		broadcastConcurrency: conf.BroadcastConcurrency,
		events:               NewEventLog(conf.EventLogSize),
		metrics:              NewMetrics(),
		now:                  options.now,
		logger:               options.logger.WithSubsystem("node"),
	}
	if n.sendTimeout <= 0 {
		n.sendTimeout = DefaultConfig().SendTimeout
	}
	if n.broadcastConcurrency <= 0 {
		n.broadcastConcurrency = 1
	}

	n.mu.Lock()
	n.seedLocked()
	n.mu.Unlock()

	return n
}

func (n *Node) ID() PeerID {
	// id is immutable so doesn't need the mutex.
	return n.id
}

// State returns a snapshot of the node state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	return State{
		ID:              n.id,
		Name:            n.name,
		InstanceID:      n.instanceID,
		Peers:           n.peers.Entries(),
		BestValue:       n.bestValue,
		BestValueSource: n.bestValueSource,
		MsgCounter:      n.msgCounter,
		Awake:           n.awake,
		SeenMessages:    n.dedup.Len(),
	}
}

// Peers returns the IDs of the known peers.
func (n *Node) Peers() []PeerID {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.peers.Snapshot()
}

func (n *Node) BestValue() Value {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.bestValue
}

func (n *Node) Awake() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.awake
}

// Sleep suspends the node. While asleep the node neither sends nor processes
// messages, though its state is kept.
func (n *Node) Sleep() {
	n.mu.Lock()
	n.awake = false
	n.mu.Unlock()

	n.logger.Info("node asleep")
}

func (n *Node) Wake() {
	n.mu.Lock()
	n.awake = true
	n.mu.Unlock()

	n.logger.Info("node awake")
}

// Reset discards the known peers, processed messages, best value and event
// log, and wakes the node. The message counter is incremented rather than
// reset so message IDs are not reused. The bootstrap peer, if configured, is
// added again.
func (n *Node) Reset() {
	n.mu.Lock()
	n.peers.Clear()
	n.dedup.Clear()
	n.bestValue = BaselineValue
	n.bestValueSource = n.id
	n.msgCounter++
	n.awake = true
	n.seedLocked()
	n.mu.Unlock()

	n.events.Clear()

	n.logger.Info("node reset")
}

// Adopt sets the best value to v, originated by the local node, unless the
// best value is already at least v. Returns whether v was adopted.
func (n *Node) Adopt(v Value) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if v.Cmp(n.bestValue) <= 0 {
		return false
	}
	n.setBestValueLocked(v, n.id)
	return true
}

// EvictStale removes peers not heard from within threshold.
func (n *Node) EvictStale(threshold time.Duration) []PeerID {
	n.mu.Lock()
	evicted := n.peers.EvictStale(n.now(), threshold)
	n.metrics.Peers.Set(float64(n.peers.Len()))
	n.mu.Unlock()

	n.metrics.Evictions.Add(float64(len(evicted)))
	return evicted
}

// OnReceive processes a message received from a peer. The message must
// already be validated.
//
// Messages are processed at most once, identified by their ID and
// originator. Messages originated by the local node are ignored.
func (n *Node) OnReceive(ctx context.Context, msg Message) {
	n.mu.Lock()
	if !n.awake {
		n.mu.Unlock()
		n.metrics.MessagesDropped.WithLabelValues("asleep").Inc()
		return
	}
	if !n.dedup.Admit(msg.ID, msg.Originator) {
		n.mu.Unlock()
		n.metrics.MessagesDropped.WithLabelValues("duplicate").Inc()
		return
	}
	if msg.Originator == n.id {
		n.mu.Unlock()
		n.metrics.MessagesDropped.WithLabelValues("self").Inc()
		return
	}

	now := n.now()
	n.touchLocked(msg.Forwarder, now)

	update, isUpdate := msg.Body.(ValueUpdate)
	if isUpdate {
		// The originator is the source of the value, so is known to be alive
		// even if the message was forwarded.
		n.touchLocked(msg.Originator, now)

		if update.Value.Cmp(n.bestValue) > 0 {
			n.setBestValueLocked(update.Value, msg.Originator)
		}
	}
	n.mu.Unlock()

	e := messageEvent(EventReceived, 0, msg)
	e.Timestamp = now
	n.events.Append(e)
	n.metrics.MessagesInbound.WithLabelValues(msg.Kind().String()).Inc()

	n.logger.Debug(
		"received message",
		zap.String("kind", msg.Kind().String()),
		zap.Uint64("id", msg.ID),
		zap.Int("forwarder", int(msg.Forwarder)),
		zap.Int("originator", int(msg.Originator)),
		zap.Int("ttl", msg.TTL),
	)

	switch msg.Body.(type) {
	case Probe:
		ack := Message{
			Header: Header{TTL: 0},
			Body:   ProbeAck{},
		}
		if err := n.Send(ctx, msg.Forwarder, ack, false); err != nil {
			n.logger.Error("failed to send probe ack", zap.Error(err))
		}
	case ProbeAck:
		// Receiving the ack already refreshed the forwarder.
	case ValueUpdate:
		if msg.TTL == 0 {
			return
		}
		fwd := Message{
			Header: Header{
				Originator: msg.Originator,
				TTL:        msg.TTL - 1,
			},
			Body: update,
		}
		if err := n.Broadcast(ctx, fwd, true); err != nil {
			n.logger.Error("failed to forward value", zap.Error(err))
		}
	}
}

func (n *Node) Events() *EventLog {
	return n.events
}

func (n *Node) Metrics() *Metrics {
	return n.metrics
}

// touchLocked records the peer was heard from. The local node is never
// added as a peer.
func (n *Node) touchLocked(id PeerID, now time.Time) {
	if id == n.id || !id.Valid() {
		return
	}
	if _, ok := n.peers.LastHeard(id); !ok {
		n.logger.Info("discovered peer", zap.Int("peer", int(id)))
		n.metrics.Discoveries.Inc()
	}
	n.peers.Touch(id, now)
	n.metrics.Peers.Set(float64(n.peers.Len()))
}

func (n *Node) setBestValueLocked(v Value, source PeerID) {
	n.bestValue = v
	n.bestValueSource = source
	n.metrics.BestValueBits.Set(float64(v.BitLen()))
}

func (n *Node) seedLocked() {
	if n.bootstrap != 0 {
		n.touchLocked(n.bootstrap, n.now())
	}
}

func (n *Node) logSendFailure(peer PeerID, msg Message, err error) {
	if errors.Is(err, context.Canceled) {
		n.logger.Debug(
			"send cancelled",
			zap.Int("peer", int(peer)),
			zap.String("kind", msg.Kind().String()),
		)
	} else {
		n.logger.Warn(
			"failed to send message",
			zap.Int("peer", int(peer)),
			zap.String("kind", msg.Kind().String()),
			zap.Uint64("id", msg.ID),
			zap.Error(err),
		)
	}
	n.events.Append(errorEvent(err))
	n.metrics.SendFailures.Inc()
}
