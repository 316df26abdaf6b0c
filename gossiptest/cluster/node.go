package cluster

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/server"
	"github.com/andydunstall/primegossip/transport"
)

const peerHost = "127.0.0.1"

// Node runs a gossip node, with its scheduler and HTTP server, on a local
// port.
type Node struct {
	node      *node.Node
	scheduler *node.Scheduler
	server    *server.Server
	client    *transport.Client

	ln net.Listener

	cancel func()
	wg     sync.WaitGroup
}

func NewNode(opts ...Option) (*Node, error) {
	options := defaultOptions()
	for _, o := range opts {
		o.apply(&options)
	}

	// The node ID is its port, so we must listen before creating the node.
	ln, err := net.Listen("tcp", net.JoinHostPort(peerHost, "0"))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	logger := options.logger.With(zap.Int("node", port))

	client, err := transport.NewClient(&transport.Config{
		PeerHost: peerHost,
		Codec:    options.codec,
	}, logger)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}

	nodeConf := node.DefaultConfig()
	nodeConf.Port = port
	nodeConf.Bootstrap = int(options.bootstrap)
	n := node.New(&nodeConf, client, node.WithLogger(logger))

	gossipConf := options.gossip
	scheduler := node.NewScheduler(n, node.MersenneGenerator, &gossipConf, logger)

	serverConf := server.DefaultConfig()
	srv := server.NewServer(n, peerHost, &serverConf, prometheus.NewRegistry(), logger)

	return &Node{
		node:      n,
		scheduler: scheduler,
		server:    srv,
		client:    client,
		ln:        ln,
	}, nil
}

func (n *Node) ID() node.PeerID {
	return n.node.ID()
}

func (n *Node) Node() *node.Node {
	return n.node
}

// URL returns the URL of the node's HTTP server.
func (n *Node) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   n.ln.Addr().String(),
	}
}

func (n *Node) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	n.wg.Add(2)
	go func() {
		defer n.wg.Done()
		_ = n.server.Serve(n.ln)
	}()
	go func() {
		defer n.wg.Done()
		_ = n.scheduler.Run(ctx)
	}()
}

func (n *Node) Stop() {
	if n.cancel != nil {
		n.cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	_ = n.server.Shutdown(shutdownCtx)

	n.wg.Wait()
	n.client.Close()
}
