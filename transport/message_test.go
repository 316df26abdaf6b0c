package transport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/primegossip/node"
)

func TestCodec_RoundTrip(t *testing.T) {
	msgs := []node.Message{
		{
			Header: node.Header{ID: 7, Forwarder: 5001, Originator: 5002, TTL: 2},
			Body:   node.ValueUpdate{Value: node.NewValue(2147483647)},
		},
		{
			Header: node.Header{ID: 0, Forwarder: 5001, Originator: 5001, TTL: 0},
			Body:   node.Probe{},
		},
		{
			Header: node.Header{ID: 12, Forwarder: 65535, Originator: 1024, TTL: 0},
			Body:   node.ProbeAck{},
		},
	}

	for _, c := range []Codec{JSON, Msgpack} {
		t.Run(c.Name(), func(t *testing.T) {
			for _, msg := range msgs {
				var buf bytes.Buffer
				n, err := Encode(&buf, c, msg)
				require.NoError(t, err)
				assert.Equal(t, buf.Len(), n)

				decoded, err := Decode(&buf, c.ContentType())
				require.NoError(t, err)

				assert.Equal(t, msg.Header, decoded.Header)
				assert.Equal(t, msg.Kind(), decoded.Kind())
				if u, ok := msg.Body.(node.ValueUpdate); ok {
					assert.Equal(t, u.Value.String(), decoded.Body.(node.ValueUpdate).Value.String())
				}
			}
		})
	}
}

func TestCodec_LargeValue(t *testing.T) {
	// 2^127 - 1 doesn't fit in any integer type.
	v, ok := parseValue("170141183460469231731687303715884105727")
	require.True(t, ok)

	msg := node.Message{
		Header: node.Header{ID: 1, Forwarder: 5001, Originator: 5001, TTL: 1},
		Body:   node.ValueUpdate{Value: v},
	}
	for _, c := range []Codec{JSON, Msgpack} {
		var buf bytes.Buffer
		_, err := Encode(&buf, c, msg)
		require.NoError(t, err)

		decoded, err := Decode(&buf, c.ContentType())
		require.NoError(t, err)
		assert.Equal(t, v.String(), decoded.Body.(node.ValueUpdate).Value.String())
	}
}

func TestDecode_JSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		body := `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5002, "ttl": 2, "data": 31}`
		msg, err := Decode(strings.NewReader(body), "application/json; charset=utf-8")
		require.NoError(t, err)

		assert.Equal(t, node.Header{ID: 7, Forwarder: 5001, Originator: 5002, TTL: 2}, msg.Header)
		assert.Equal(t, "31", msg.Body.(node.ValueUpdate).Value.String())
	})

	t.Run("missing content type", func(t *testing.T) {
		body := `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0, "data": null}`
		msg, err := Decode(strings.NewReader(body), "")
		require.NoError(t, err)
		assert.Equal(t, node.KindProbe, msg.Kind())
	})

	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid json",
			body: `{"msg_type": "PING"`,
		},
		{
			name: "unknown type",
			body: `{"msg_type": "HELLO", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "missing id",
			body: `{"msg_type": "PING", "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "negative id",
			body: `{"msg_type": "PING", "msg_id": -1, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "missing forwarder",
			body: `{"msg_type": "PING", "msg_id": 7,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "missing originator",
			body: `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 5001,
"ttl": 0}`,
		},
		{
			name: "missing ttl",
			body: `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001}`,
		},
		{
			name: "negative ttl",
			body: `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": -1, "data": 31}`,
		},
		{
			name: "forwarder out of range",
			body: `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 80,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "originator out of range",
			body: `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 70000, "ttl": 0}`,
		},
		{
			name: "value update missing data",
			body: `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0}`,
		},
		{
			name: "value update null data",
			body: `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0, "data": null}`,
		},
		{
			name: "value update invalid data",
			body: `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0, "data": "abc"}`,
		},
		{
			name: "probe with data",
			body: `{"msg_type": "PING", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0, "data": 31}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body), ContentTypeJSON)
			assert.Error(t, err)
		})
	}

	t.Run("unsupported content type", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{}`), "text/plain")
		assert.Error(t, err)
	})
}

func TestToMessage_InvalidMessage(t *testing.T) {
	id := uint64(1)
	forwarder := 5001
	originator := 5001
	ttl := 0

	wire := &Message{
		Type:       "PRIME",
		ID:         &id,
		Forwarder:  &forwarder,
		Originator: &originator,
		TTL:        &ttl,
	}
	_, err := wire.ToMessage()
	assert.ErrorIs(t, err, node.ErrInvalidMessage)
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, c)

	c, err = CodecByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, Msgpack, c)

	_, err = CodecByName("xml")
	assert.Error(t, err)
}

func parseValue(s string) (node.Value, bool) {
	var v node.Value
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return node.Value{}, false
	}
	return v, true
}
