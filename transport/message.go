package transport

import (
	"fmt"

	"github.com/andydunstall/primegossip/node"
)

// Message is the wire format of a node.Message.
//
// Fields are pointers so a missing field can be distinguished from a zero
// value.
type Message struct {
	Type       string      `json:"msg_type" binding:"required,oneof=PING PONG PRIME"`
	ID         *uint64     `json:"msg_id" binding:"required"`
	Forwarder  *int        `json:"msg_forwarder" binding:"required"`
	Originator *int        `json:"msg_originator" binding:"required"`
	TTL        *int        `json:"ttl" binding:"required,gte=0"`
	Data       *node.Value `json:"data"`
}

func FromMessage(m node.Message) *Message {
	id := m.ID
	forwarder := int(m.Forwarder)
	originator := int(m.Originator)
	ttl := m.TTL

	wire := &Message{
		Type:       m.Kind().String(),
		ID:         &id,
		Forwarder:  &forwarder,
		Originator: &originator,
		TTL:        &ttl,
	}
	if u, ok := m.Body.(node.ValueUpdate); ok {
		v := u.Value
		wire.Data = &v
	}
	return wire
}

// ToMessage converts the wire message to a node.Message, returning an error
// wrapping node.ErrInvalidMessage if the message is malformed.
func (m *Message) ToMessage() (node.Message, error) {
	if m.ID == nil {
		return node.Message{}, fmt.Errorf("missing msg_id: %w", node.ErrInvalidMessage)
	}
	if m.Forwarder == nil {
		return node.Message{}, fmt.Errorf("missing msg_forwarder: %w", node.ErrInvalidMessage)
	}
	if m.Originator == nil {
		return node.Message{}, fmt.Errorf("missing msg_originator: %w", node.ErrInvalidMessage)
	}
	if m.TTL == nil {
		return node.Message{}, fmt.Errorf("missing ttl: %w", node.ErrInvalidMessage)
	}

	kind, err := node.ParseKind(m.Type)
	if err != nil {
		return node.Message{}, err
	}

	msg := node.Message{
		Header: node.Header{
			ID:         *m.ID,
			Forwarder:  node.PeerID(*m.Forwarder),
			Originator: node.PeerID(*m.Originator),
			TTL:        *m.TTL,
		},
	}

	switch kind {
	case node.KindProbe, node.KindProbeAck:
		if m.Data != nil && m.Data.IsSet() {
			return node.Message{}, fmt.Errorf(
				"unexpected data for %s: %w", kind, node.ErrInvalidMessage,
			)
		}
		if kind == node.KindProbe {
			msg.Body = node.Probe{}
		} else {
			msg.Body = node.ProbeAck{}
		}
	case node.KindValueUpdate:
		if m.Data == nil || !m.Data.IsSet() {
			return node.Message{}, fmt.Errorf("missing data: %w", node.ErrInvalidMessage)
		}
		msg.Body = node.ValueUpdate{Value: *m.Data}
	}

	if err := msg.Validate(); err != nil {
		return node.Message{}, err
	}
	return msg, nil
}
