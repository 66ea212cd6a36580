package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var resp statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeStatus(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks, "_readiness")
}

func TestReadyEndpoint_Ready(t *testing.T) {
	h := New()
	h.SetReady(true)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeStatus(t, w).Status)
}

func TestLiveEndpoint_HealthyByDefault(t *testing.T) {
	h := New()
	h.AddLivenessCheck("always-ok", time.Second, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheck_FailureThreshold(t *testing.T) {
	c := newCheck("flaky", time.Second, func(context.Context) error {
		return errors.New("down")
	})
	ctx := context.Background()

	// Below the threshold the check stays healthy.
	c.run(ctx)
	c.run(ctx)
	assert.True(t, c.healthy.Load())

	c.run(ctx)
	assert.False(t, c.healthy.Load())

	// One success flips it back.
	c.fn = func(context.Context) error { return nil }
	c.run(ctx)
	assert.True(t, c.healthy.Load())
}

func TestIsReady_FailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	assert.True(t, h.IsReady())

	h.mu.RLock()
	c := h.readiness[0]
	h.mu.RUnlock()
	for range failureThreshold {
		c.run(context.Background())
	}

	assert.False(t, h.IsReady())

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection refused", decodeStatus(t, w).Checks["db"])
}

func TestStartStop(t *testing.T) {
	h := New()
	var calls atomic.Int32
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()

	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), after+1)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
