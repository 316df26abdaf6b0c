package node

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Transport delivers a message to a peer.
//
// The message header is fully populated when Send is called. Send must
// return once ctx is done.
type Transport interface {
	Send(ctx context.Context, peer PeerID, msg Message) error
}

// Send sends the message to the peer.
//
// The message ID and forwarder are set by Send. If forwarded is false the
// local node is set as the originator, otherwise the message must already
// have an originator.
//
// Delivery is best effort. Failing to deliver the message is logged rather
// than returned, and the message is not retried. An error is only returned
// if the message or peer is invalid, which indicates a bug in the caller.
//
// Does nothing if the node is asleep.
func (n *Node) Send(ctx context.Context, peer PeerID, msg Message, forwarded bool) error {
	if err := msg.validateBody(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if forwarded && !msg.Originator.Valid() {
		return fmt.Errorf("send: forwarded message missing originator: %w", ErrInvalidMessage)
	}
	if !peer.Valid() {
		return fmt.Errorf("send: %d: %w", peer, ErrInvalidPeer)
	}
	if peer == n.id {
		return fmt.Errorf("send: cannot send to self: %w", ErrInvalidPeer)
	}

	n.mu.Lock()
	if !n.awake {
		n.mu.Unlock()
		return nil
	}
	msg.Forwarder = n.id
	msg.ID = n.msgCounter
	n.msgCounter++
	if !forwarded {
		msg.Originator = n.id
	}
	n.mu.Unlock()

	e := messageEvent(EventSent, peer, msg)
	e.Timestamp = n.now()
	n.events.Append(e)
	n.metrics.MessagesOutbound.WithLabelValues(msg.Kind().String()).Inc()

	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	if err := n.transport.Send(ctx, peer, msg); err != nil {
		n.logSendFailure(peer, msg, err)
	}
	return nil
}

// Broadcast sends the message to every known peer. Each peer is sent a
// separate message with its own ID.
//
// As with Send, delivery failures are logged rather than returned.
func (n *Node) Broadcast(ctx context.Context, msg Message, forwarded bool) error {
	var g errgroup.Group
	g.SetLimit(n.broadcastConcurrency)
	for _, peer := range n.Peers() {
		g.Go(func() error {
			return n.Send(ctx, peer, msg, forwarded)
		})
	}
	return g.Wait()
}
