package node

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"
)

type sentMessage struct {
	Peer PeerID
	Msg  Message
}

type fakeTransport struct {
	sent []sentMessage
	// failPeers are peers whose sends fail.
	failPeers map[PeerID]error

	mu sync.Mutex
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		failPeers: make(map[PeerID]error),
	}
}

func (t *fakeTransport) Send(_ context.Context, peer PeerID, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, sentMessage{Peer: peer, Msg: msg})
	return t.failPeers[peer]
}

func (t *fakeTransport) Fail(peer PeerID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failPeers[peer] = err
}

// Sent returns the sent messages sorted by peer.
func (t *fakeTransport) Sent() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	sent := make([]sentMessage, len(t.sent))
	copy(sent, t.sent)
	sort.SliceStable(sent, func(i, j int) bool {
		return sent[i].Peer < sent[j].Peer
	})
	return sent
}

func (t *fakeTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = nil
}

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// incrementGenerator generates the current value plus one.
var incrementGenerator = GeneratorFunc(func(current Value) Value {
	return ValueFromBig(new(big.Int).Add(current.Big(), big.NewInt(1)))
})

func testConfig(port int) *Config {
	return &Config{
		Port:                 port,
		SendTimeout:          time.Second,
		BroadcastConcurrency: 4,
		EventLogSize:         100,
	}
}

func newTestNode(conf *Config) (*Node, *fakeTransport, *fakeClock) {
	transport := newFakeTransport()
	clock := newFakeClock()
	n := New(conf, transport, WithClock(clock.Now))
	return n, transport, clock
}

// addPeers adds the given peers as last heard at the current time.
func addPeers(n *Node, peers ...PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, p := range peers {
		n.touchLocked(p, n.now())
	}
}

func peerIDs(sent []sentMessage) []PeerID {
	var ids []PeerID
	for _, s := range sent {
		ids = append(ids, s.Peer)
	}
	return ids
}

func sortedPeers(ids []PeerID) []PeerID {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
