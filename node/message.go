package node

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeer indicates a message addressed to a peer ID that is not
	// a valid port, or to the local node itself.
	ErrInvalidPeer = errors.New("invalid peer")

	// ErrInvalidMessage indicates a message that is missing a required field
	// or has a field that is out of range.
	ErrInvalidMessage = errors.New("invalid message")
)

const (
	MinPort = 1024
	MaxPort = 65535
)

// PeerID identifies a node by the port it listens on.
type PeerID int

func (id PeerID) Valid() bool {
	return id >= MinPort && id <= MaxPort
}

type Kind uint8

const (
	KindProbe Kind = iota + 1
	KindProbeAck
	KindValueUpdate
)

// String returns the kind's name on the wire.
func (k Kind) String() string {
	switch k {
	case KindProbe:
		return "PING"
	case KindProbeAck:
		return "PONG"
	case KindValueUpdate:
		return "PRIME"
	default:
		return "UNKNOWN"
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "PING":
		return KindProbe, nil
	case "PONG":
		return KindProbeAck, nil
	case "PRIME":
		return KindValueUpdate, nil
	default:
		return 0, fmt.Errorf("unknown kind: %q: %w", s, ErrInvalidMessage)
	}
}

// Header contains the routing metadata common to every message.
type Header struct {
	// ID is assigned by the forwarder when sending, so is only unique when
	// paired with Originator.
	ID uint64

	// Forwarder is the node that sent this hop.
	Forwarder PeerID

	// Originator is the node that created the message.
	Originator PeerID

	// TTL is the number of remaining hops. A message with a TTL of 0 is
	// never forwarded.
	TTL int
}

// Body is one of Probe, ProbeAck or ValueUpdate.
type Body interface {
	Kind() Kind
}

// Probe asks the receiver to acknowledge it is alive.
type Probe struct{}

func (Probe) Kind() Kind { return KindProbe }

// ProbeAck acknowledges a Probe.
type ProbeAck struct{}

func (ProbeAck) Kind() Kind { return KindProbeAck }

// ValueUpdate floods a candidate best value.
type ValueUpdate struct {
	Value Value
}

func (ValueUpdate) Kind() Kind { return KindValueUpdate }

type Message struct {
	Header

	Body Body
}

func (m Message) Kind() Kind {
	if m.Body == nil {
		return 0
	}
	return m.Body.Kind()
}

// Validate checks a received message is well formed.
func (m Message) Validate() error {
	if err := m.validateBody(); err != nil {
		return err
	}
	if !m.Forwarder.Valid() {
		return fmt.Errorf("invalid forwarder: %d: %w", m.Forwarder, ErrInvalidMessage)
	}
	if !m.Originator.Valid() {
		return fmt.Errorf("invalid originator: %d: %w", m.Originator, ErrInvalidMessage)
	}
	return nil
}

func (m Message) validateBody() error {
	if m.Body == nil {
		return fmt.Errorf("missing body: %w", ErrInvalidMessage)
	}
	if m.TTL < 0 {
		return fmt.Errorf("negative ttl: %d: %w", m.TTL, ErrInvalidMessage)
	}
	switch body := m.Body.(type) {
	case Probe, ProbeAck:
	case ValueUpdate:
		if !body.Value.IsSet() {
			return fmt.Errorf("missing value: %w", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("unknown body: %T: %w", m.Body, ErrInvalidMessage)
	}
	return nil
}
