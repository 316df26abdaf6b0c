package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
)

// Client sends messages to peers over HTTP, by posting the encoded message
// to the peer's '/receive' route.
type Client struct {
	httpClient *http.Client

	peerHost string
	codec    Codec

	metrics *Metrics

	logger log.Logger
}

// NewClient creates a client from a validated config.
func NewClient(conf *Config, logger log.Logger) (*Client, error) {
	c, err := CodecByName(conf.Codec)
	if err != nil {
		return nil, err
	}
	return &Client{
		// Requests are bounded by the context passed to Send.
		httpClient: &http.Client{},
		peerHost:   conf.PeerHost,
		codec:      c,
		metrics:    NewMetrics(),
		logger:     logger.WithSubsystem("transport"),
	}, nil
}

func (c *Client) Send(ctx context.Context, peer node.PeerID, msg node.Message) error {
	start := time.Now()

	err := c.send(ctx, peer, msg)

	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.RequestsTotal.With(map[string]string{
		"kind":   msg.Kind().String(),
		"result": result,
	}).Inc()
	c.metrics.RequestLatency.Observe(float64(time.Since(start).Milliseconds()) / 1000)

	return err
}

func (c *Client) Metrics() *Metrics {
	return c.metrics
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) send(ctx context.Context, peer node.PeerID, msg node.Message) error {
	var buf bytes.Buffer
	n, err := Encode(&buf, c.codec, msg)
	if err != nil {
		return err
	}
	c.metrics.BytesSent.Add(float64(n))

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.receiveURL(peer), &buf,
	)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", c.codec.ContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request: %d: bad status: %d", peer, resp.StatusCode)
	}

	c.logger.Debug(
		"sent message",
		zap.Int("peer", int(peer)),
		zap.String("kind", msg.Kind().String()),
		zap.Uint64("id", msg.ID),
	)

	return nil
}

func (c *Client) receiveURL(peer node.PeerID) string {
	host := net.JoinHostPort(c.peerHost, strconv.Itoa(int(peer)))
	return "http://" + host + "/receive"
}

var _ node.Transport = &Client{}
