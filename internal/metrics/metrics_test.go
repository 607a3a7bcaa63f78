package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := NewServerMetrics("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/flavours/:id", func(c echo.Context) error {
		if c.Param("id") == "0" {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "nope"})
		}
		return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
	})

	for _, path := range []string{"/flavours/1", "/flavours/2", "/flavours/0"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/flavours/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/flavours/:id", "404")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := NewServerMetrics("test")
	m.Requests.WithLabelValues("POST", "/orders", "201").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sunrise_test_http_requests_total{method="POST",route="/orders",status="201"} 1`)
}
