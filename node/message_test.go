package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Validate(t *testing.T) {
	valid := Header{ID: 1, Forwarder: 5001, Originator: 5002, TTL: 2}

	tests := []struct {
		name string
		msg  Message
		ok   bool
	}{
		{"probe", Message{Header: valid, Body: Probe{}}, true},
		{"probe ack", Message{Header: valid, Body: ProbeAck{}}, true},
		{"value update", Message{Header: valid, Body: ValueUpdate{Value: NewValue(31)}}, true},
		{"missing body", Message{Header: valid}, false},
		{"missing value", Message{Header: valid, Body: ValueUpdate{}}, false},
		{"negative ttl", Message{Header: Header{ID: 1, Forwarder: 5001, Originator: 5002, TTL: -1}, Body: Probe{}}, false},
		{"invalid forwarder", Message{Header: Header{Forwarder: 80, Originator: 5002}, Body: Probe{}}, false},
		{"invalid originator", Message{Header: Header{Forwarder: 5001, Originator: 70000}, Body: Probe{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidMessage))
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindProbe, KindProbeAck, KindValueUpdate} {
		parsed, err := ParseKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("GOSSIP")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
