package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/andydunstall/primegossip/pkg/log"
)

type contextKey int

const (
	hostContextKey contextKey = iota
)

// ReverseProxy forwards requests to another node. The target host is read
// from the request context.
type ReverseProxy struct {
	proxy *httputil.ReverseProxy

	timeout time.Duration

	logger log.Logger
}

func NewReverseProxy(timeout time.Duration, logger log.Logger) *ReverseProxy {
	rp := &ReverseProxy{
		timeout: timeout,
		logger:  logger,
	}

	rp.proxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
			req.URL.Host = req.Context().Value(hostContextKey).(string)
		},
		ErrorLog:     logger.StdLogger(zapcore.WarnLevel),
		ErrorHandler: rp.errorHandler,
	}

	return rp
}

// ServeHTTP forwards the request to host, with the path rewritten to path.
func (p *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request, host string, path string) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, hostContextKey, host)
	r = r.Clone(ctx)
	r.URL.Path = path
	r.URL.RawPath = ""

	p.proxy.ServeHTTP(w, r)
}

func (p *ReverseProxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn(
		"proxy request",
		zap.String("host", r.URL.Host),
		zap.Error(err),
	)

	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "peer timeout")
		return
	}
	writeError(w, http.StatusBadGateway, "peer unreachable")
}

type errorMessage struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	m := &errorMessage{
		Error: message,
	}
	_ = json.NewEncoder(w).Encode(m)
}
