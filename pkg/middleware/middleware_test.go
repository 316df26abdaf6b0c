package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/andydunstall/primegossip/pkg/log"
)

func TestMetrics_Handler(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	metrics := NewMetrics("http")
	metrics.Register(prometheus.NewRegistry())

	router := gin.New()
	router.Use(metrics.Handler())
	router.Use(NewLogger(log.NewNopLogger()))
	router.GET("/state", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i != 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/5001/state", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(
		metrics.RequestsTotal.WithLabelValues("/state", "200", "GET"),
	))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.RequestsTotal.WithLabelValues("unmatched", "404", "GET"),
	))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RequestsInFlight))
}
