package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
	"github.com/andydunstall/primegossip/transport"
)

type nopTransport struct {
}

func (t *nopTransport) Send(_ context.Context, _ node.PeerID, _ node.Message) error {
	return nil
}

func startServer(t *testing.T) (*node.Node, string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	conf := node.DefaultConfig()
	conf.Port = ln.Addr().(*net.TCPAddr).Port
	n := node.New(&conf, &nopTransport{})

	serverConf := DefaultConfig()
	s := NewServer(
		n,
		"127.0.0.1",
		&serverConf,
		prometheus.NewRegistry(),
		log.NewNopLogger(),
	)
	go func() {
		require.NoError(t, s.Serve(ln))
	}()
	t.Cleanup(func() {
		_ = s.Shutdown(context.TODO())
	})

	return n, ln.Addr().String()
}

func post(t *testing.T, url string, contentType string, body []byte) *http.Response {
	resp, err := http.Post(url, contentType, bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestServer_Receive(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		n, addr := startServer(t)

		body := `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5002, "ttl": 0, "data": 31}`
		resp := post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		state := n.State()
		assert.Equal(t, "31", state.BestValue.String())
		assert.Equal(t, node.PeerID(5002), state.BestValueSource)
	})

	t.Run("msgpack", func(t *testing.T) {
		n, addr := startServer(t)

		var buf bytes.Buffer
		_, err := transport.Encode(&buf, transport.Msgpack, node.Message{
			Header: node.Header{ID: 7, Forwarder: 5001, Originator: 5002, TTL: 0},
			Body:   node.ValueUpdate{Value: node.NewValue(127)},
		})
		require.NoError(t, err)

		resp := post(t, fmt.Sprintf("http://%s/receive", addr), transport.ContentTypeMsgpack, buf.Bytes())
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "127", n.State().BestValue.String())
	})

	t.Run("malformed", func(t *testing.T) {
		n, addr := startServer(t)

		body := `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5002, "ttl": 0}`
		resp := post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var m map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
		assert.NotEmpty(t, m["error"])

		state := n.State()
		assert.Equal(t, "2", state.BestValue.String())
		assert.Equal(t, 0, state.SeenMessages)
		assert.Empty(t, state.Peers)
	})
}

func TestServer_AdminRoutes(t *testing.T) {
	n, addr := startServer(t)

	for i := 0; i != 8; i++ {
		body := fmt.Sprintf(`{"msg_type": "PONG", "msg_id": %d, "msg_forwarder": 5001,
"msg_originator": 5001, "ttl": 0}`, i)
		resp := post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("state", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/state", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var state map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
		assert.Equal(t, float64(n.ID()), state["port"])
		assert.Equal(t, float64(2), state["biggest_prime"])
		assert.Equal(t, true, state["awake"])
		assert.Contains(t, state["peers"], "5001")
	})

	t.Run("message log", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/message_log", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		var events []node.Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		require.Len(t, events, 5)
		assert.Equal(t, uint64(3), events[0].ID)
		assert.Equal(t, uint64(7), events[4].ID)
	})

	t.Run("message log n", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/message_log?n=2", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		var events []node.Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		assert.Len(t, events, 2)
	})

	t.Run("message log invalid n", func(t *testing.T) {
		for _, n := range []string{"abc", "0", "-1"} {
			resp, err := http.Get(fmt.Sprintf("http://%s/message_log?n=%s", addr, n))
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, n)
		}
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(b), "primegossip_http_requests_total")
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/foo", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Lifecycle(t *testing.T) {
	n, addr := startServer(t)

	resp := post(t, fmt.Sprintf("http://%s/sleep", addr), "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, n.Awake())

	// Messages are ignored while asleep.
	body := `{"msg_type": "PRIME", "msg_id": 7, "msg_forwarder": 5001,
"msg_originator": 5002, "ttl": 0, "data": 31}`
	resp = post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", n.State().BestValue.String())

	resp = post(t, fmt.Sprintf("http://%s/wake_up", addr), "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, n.Awake())

	resp = post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
	resp.Body.Close()
	assert.Equal(t, "31", n.State().BestValue.String())

	resp = post(t, fmt.Sprintf("http://%s/reset", addr), "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	state := n.State()
	assert.Equal(t, "2", state.BestValue.String())
	assert.Empty(t, state.Peers)
	assert.Equal(t, 0, state.SeenMessages)
}

func TestServer_Proxy(t *testing.T) {
	_, addr := startServer(t)
	target, _ := startServer(t)

	t.Run("ok", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/%d/state", addr, target.ID()))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var state map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
		assert.Equal(t, float64(target.ID()), state["port"])
	})

	t.Run("post", func(t *testing.T) {
		resp := post(t, fmt.Sprintf("http://%s/%d/sleep", addr, target.ID()), "", nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, target.Awake())
	})

	t.Run("unreachable", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		resp, err := http.Get(fmt.Sprintf("http://%s/%d/state", addr, port))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("invalid port", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("http://%s/80/state", addr))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_MessageLogStream(t *testing.T) {
	_, addr := startServer(t)

	wsConn, _, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/message_log/stream", addr), nil,
	)
	require.NoError(t, err)
	defer wsConn.Close()

	// The subscription is registered after the upgrade completes, so retry
	// until an event is received.
	events := make(chan node.Event, 1)
	go func() {
		var e node.Event
		if err := wsConn.ReadJSON(&e); err == nil {
			events <- e
		}
	}()

	id := 0
	assert.Eventually(t, func() bool {
		body := fmt.Sprintf(`{"msg_type": "PRIME", "msg_id": %d, "msg_forwarder": 5001,
"msg_originator": 5002, "ttl": 0, "data": 31}`, id)
		id++
		resp := post(t, fmt.Sprintf("http://%s/receive", addr), "application/json", []byte(body))
		resp.Body.Close()

		select {
		case e := <-events:
			assert.Equal(t, node.EventReceived, e.Type)
			assert.Equal(t, "PRIME", e.Kind)
			assert.Equal(t, "31", e.Data.String())
			return true
		case <-time.After(time.Millisecond * 50):
			return false
		}
	}, time.Second*5, time.Millisecond*10)
}

func TestParseProxyPath(t *testing.T) {
	tests := []struct {
		path string
		peer node.PeerID
		rest string
		ok   bool
	}{
		{path: "/5001/state", peer: 5001, rest: "/state", ok: true},
		{path: "/5001/message_log/stream", peer: 5001, rest: "/message_log/stream", ok: true},
		{path: "/5001", peer: 5001, rest: "/", ok: true},
		{path: "/80/state", ok: false},
		{path: "/foo/state", ok: false},
		{path: "/", ok: false},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.path, "/", "_"), func(t *testing.T) {
			peer, rest, ok := parseProxyPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.peer, peer)
				assert.Equal(t, tt.rest, rest)
			}
		})
	}
}
