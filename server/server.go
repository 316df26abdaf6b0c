package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/pkg/log"
	"github.com/andydunstall/primegossip/pkg/middleware"
	"github.com/andydunstall/primegossip/transport"
)

const defaultLogSize = 5

// Server is the node HTTP server. It receives messages from peers, exposes
// endpoints to inspect and control the node, and proxies requests to other
// nodes.
type Server struct {
	node *node.Node

	peerHost string

	registry *prometheus.Registry

	proxy *ReverseProxy

	httpServer *http.Server

	router *gin.Engine

	websocketUpgrader *websocket.Upgrader

	// shutdownCtx is cancelled when the server is shut down, to close open
	// event streams.
	shutdownCtx    context.Context
	shutdownCancel func()

	logger log.Logger
}

func NewServer(
	n *node.Node,
	peerHost string,
	conf *Config,
	registry *prometheus.Registry,
	logger log.Logger,
) *Server {
	logger = logger.WithSubsystem("server")

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	router := gin.New()
	server := &Server{
		node:     n,
		peerHost: peerHost,
		registry: registry,
		proxy:    NewReverseProxy(conf.ProxyTimeout, logger),
		httpServer: &http.Server{
			Handler:  router,
			ErrorLog: logger.StdLogger(zapcore.WarnLevel),
		},
		router:            router,
		websocketUpgrader: &websocket.Upgrader{},
		shutdownCtx:       shutdownCtx,
		shutdownCancel:    shutdownCancel,
		logger:            logger,
	}

	// Recover from panics.
	router.Use(gin.CustomRecoveryWithWriter(nil, server.panicRoute))

	router.Use(middleware.NewLogger(logger))

	if registry != nil {
		metrics := middleware.NewMetrics("http")
		metrics.Register(registry)
		router.Use(metrics.Handler())
	}

	server.registerRoutes(router)

	return server
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info(
		"starting http server",
		zap.String("addr", ln.Addr().String()),
	)

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Shutdown attempts to gracefully shutdown the server by closing open event
// streams and waiting for pending requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownCancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.POST("/receive", s.receiveRoute)

	router.GET("/state", s.stateRoute)
	router.GET("/message_log", s.messageLogRoute)
	router.GET("/message_log/stream", s.messageLogStreamRoute)

	router.POST("/reset", s.resetRoute)
	router.POST("/sleep", s.sleepRoute)
	router.POST("/wake_up", s.wakeRoute)

	router.GET("/health", s.healthRoute)

	if s.registry != nil {
		router.GET("/metrics", s.metricsHandler())
	}

	// Handle not found routes, which includes all proxied requests.
	router.NoRoute(s.notFound)
}

// receiveRoute handles a message from a peer.
func (s *Server) receiveRoute(c *gin.Context) {
	msg, err := transport.Decode(c.Request.Body, c.ContentType())
	if err != nil {
		s.logger.Warn(
			"malformed message",
			zap.String("client-ip", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Forwarding the message must not be cancelled if the peer disconnects
	// before we respond.
	s.node.OnReceive(context.WithoutCancel(c.Request.Context()), msg)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stateRoute(c *gin.Context) {
	c.JSON(http.StatusOK, s.node.State())
}

func (s *Server) messageLogRoute(c *gin.Context) {
	n := defaultLogSize
	if v, ok := c.GetQuery("n"); ok {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n"})
			return
		}
	}
	c.JSON(http.StatusOK, s.node.Events().Recent(n))
}

func (s *Server) resetRoute(c *gin.Context) {
	s.node.Reset()
	s.logger.Info("node reset")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) sleepRoute(c *gin.Context) {
	s.node.Sleep()
	s.logger.Info("node asleep")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) wakeRoute(c *gin.Context) {
	s.node.Wake()
	s.logger.Info("node awake")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) healthRoute(c *gin.Context) {
	c.Status(http.StatusOK)
}

// notFound proxies requests to '/<port>/<path>' to the node listening on
// port. All other requests are not found.
func (s *Server) notFound(c *gin.Context) {
	peer, path, ok := parseProxyPath(c.Request.URL.Path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	host := net.JoinHostPort(s.peerHost, strconv.Itoa(int(peer)))
	s.logger.Debug(
		"proxy request",
		zap.String("host", host),
		zap.String("path", path),
	)
	s.proxy.ServeHTTP(c.Writer, c.Request, host, path)
}

func (s *Server) panicRoute(c *gin.Context, err any) {
	s.logger.Error(
		"handler panic",
		zap.String("path", c.FullPath()),
		zap.Any("err", err),
	)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (s *Server) metricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(
		s.registry,
		promhttp.HandlerOpts{Registry: s.registry},
	)
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// parseProxyPath parses a path of the form '/<port>/<path>', returning the
// target peer and the path to forward.
func parseProxyPath(p string) (node.PeerID, string, bool) {
	p = strings.TrimPrefix(p, "/")
	portStr, rest, _ := strings.Cut(p, "/")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, "", false
	}
	peer := node.PeerID(port)
	if !peer.Valid() {
		return 0, "", false
	}
	return peer, "/" + rest, true
}

func init() {
	// Disable Gin debug logs.
	gin.SetMode(gin.ReleaseMode)
}
