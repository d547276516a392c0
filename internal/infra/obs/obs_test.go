package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/infra/obs"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(mw obs.Middleware) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.AccessLog())
	r.GET("/ping/:id", func(c *gin.Context) {
		c.String(http.StatusOK, obs.RequestIDFromContext(c.Request.Context()))
	})
	return r
}

func TestRequestIDIsGeneratedAndPropagated(t *testing.T) {
	r := newRouter(obs.Middleware{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(obs.RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping/1", nil)
	req.Header.Set(obs.RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(obs.RequestIDHeader))
	assert.Equal(t, "req-42", rec.Body.String())
}

func TestAccessLogWritesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := obs.NewMetrics("test")
	r := newRouter(obs.Middleware{Logger: logger, Metrics: metrics})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http", line["msg"])
	assert.Equal(t, "/ping/:id", line["route"])
	assert.EqualValues(t, 200, line["status"])

	body := scrape(t, metrics)
	assert.Contains(t, body, `test_http_requests_total{code="200",method="GET",route="/ping/:id"} 1`)
}

func TestMetricsCountDispatchAndRelay(t *testing.T) {
	m := obs.NewMetrics("estatehub")
	m.ObserveDispatch("command", "reservations.request", 5*time.Millisecond, nil)
	m.ObserveDispatch("command", "reservations.request", time.Millisecond, errors.New("boom"))
	m.ObserveRelay("reservation.requested", nil)

	body := scrape(t, m)
	assert.Contains(t, body, `estatehub_bus_dispatch_total{key="reservations.request",kind="command",outcome="ok"} 1`)
	assert.Contains(t, body, `estatehub_bus_dispatch_total{key="reservations.request",kind="command",outcome="error"} 1`)
	assert.Contains(t, body, `estatehub_outbox_relayed_total{event="reservation.requested",outcome="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestReadyzReportsFailingChecks(t *testing.T) {
	h := obs.HealthHandlers{Checks: map[string]obs.Check{
		"memory": func(context.Context) error { return nil },
		"mongo":  func(context.Context) error { return errors.New("no primary") },
	}}
	r := gin.New()
	r.GET("/livez", h.Livez)
	r.GET("/readyz", h.Readyz)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no primary")

	healthy := obs.HealthHandlers{}
	r = gin.New()
	r.GET("/readyz", healthy.Readyz)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func scrape(t *testing.T, m *obs.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(raw))
}
