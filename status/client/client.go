package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	fspath "path"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/backoff"
)

// State is the node state as returned by the status API.
type State struct {
	Port               int               `json:"port"`
	Name               string            `json:"name"`
	InstanceID         string            `json:"instance_id"`
	Peers              map[int]time.Time `json:"peers"`
	BiggestPrime       node.Value        `json:"biggest_prime"`
	BiggestPrimeSender int               `json:"biggest_prime_sender"`
	MsgID              uint64            `json:"msg_id"`
	Awake              bool              `json:"awake"`
	SeenMessages       int               `json:"seen_messages"`
}

// Client queries a node's status API.
type Client struct {
	httpClient *http.Client

	url *url.URL

	// forward is the port of the node to proxy requests to, or 0 to query
	// the node at url.
	forward int
}

func NewClient(url *url.URL, forward int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Second * 15,
		},
		url:     url,
		forward: forward,
	}
}

func (c *Client) State() (*State, error) {
	r, err := c.request(http.MethodGet, "/state", nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var state State
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &state, nil
}

// Logs returns the n most recent events, oldest first.
func (c *Client) Logs(n int) ([]node.Event, error) {
	query := url.Values{}
	query.Set("n", strconv.Itoa(n))
	r, err := c.request(http.MethodGet, "/message_log", query)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []node.Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return events, nil
}

func (c *Client) Reset() error {
	return c.post("/reset")
}

func (c *Client) Sleep() error {
	return c.post("/sleep")
}

func (c *Client) Wake() error {
	return c.post("/wake_up")
}

// Follow streams new events to f until ctx is cancelled. If the stream
// disconnects, Follow reconnects with backoff. Events that occur while
// disconnected are not received.
func (c *Client) Follow(ctx context.Context, f func(e node.Event)) error {
	url := c.wsURL("/message_log/stream")

	dialer := &websocket.Dialer{
		HandshakeTimeout: time.Second * 15,
	}

	backoff := backoff.New(0, time.Millisecond*100, time.Second*15)
	for {
		wsConn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !backoff.Wait(ctx) {
				return nil
			}
			continue
		}
		backoff.Reset()

		err = c.readEvents(ctx, wsConn, f)
		wsConn.Close()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !backoff.Wait(ctx) {
			return nil
		}
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) readEvents(ctx context.Context, wsConn *websocket.Conn, f func(e node.Event)) error {
	// Close the connection when ctx is cancelled to unblock reads.
	stop := context.AfterFunc(ctx, func() {
		wsConn.Close()
	})
	defer stop()

	for {
		var e node.Event
		if err := wsConn.ReadJSON(&e); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		f(e)
	}
}

func (c *Client) post(path string) error {
	r, err := c.request(http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	r.Close()
	return nil
}

func (c *Client) request(method string, path string, query url.Values) (io.ReadCloser, error) {
	url := c.path(path)
	url.RawQuery = query.Encode()

	req, err := http.NewRequest(method, url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		return nil, fmt.Errorf("request: bad status: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (c *Client) path(path string) *url.URL {
	url := new(url.URL)
	*url = *c.url

	if c.forward != 0 {
		path = fspath.Join("/", strconv.Itoa(c.forward), path)
	}
	url.Path = fspath.Join(url.Path, path)
	return url
}

func (c *Client) wsURL(path string) string {
	url := c.path(path)
	if url.Scheme == "https" {
		url.Scheme = "wss"
	} else {
		url.Scheme = "ws"
	}
	return url.String()
}
