package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(fn http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint_OK(t *testing.T) {
	h := New()
	h.Add(Liveness, "goroutines", passing)

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestFailureThreshold(t *testing.T) {
	h := New()
	h.Add(Liveness, "db", failing("connection refused"))
	c := h.checks[0]
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code, "below threshold")

	c.run(ctx)
	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"db":"connection refused"}}`, w.Body.String())
}

func TestRecoveryThreshold(t *testing.T) {
	h := New()
	healthy := false
	h.Add(Readiness, "kafka", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("no brokers")
	}, WithThresholds(1, 2))
	h.SetReady(true)
	c := h.checks[0]
	ctx := context.Background()

	c.run(ctx)
	assert.False(t, h.IsReady())

	healthy = true
	c.run(ctx)
	assert.False(t, h.IsReady(), "one success is not enough")
	c.run(ctx)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_Gate(t *testing.T) {
	h := New()
	h.Add(Readiness, "postgres", passing)

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "service is not ready")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.ReadyEndpoint).Code)
}

func TestReadinessIgnoresLiveness(t *testing.T) {
	h := New()
	h.Add(Liveness, "broken", failing("x"), WithThresholds(1, 1))
	h.SetReady(true)
	h.checks[0].run(context.Background())

	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h.LiveEndpoint).Code)
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.Add(Readiness, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout(10*time.Millisecond), WithThresholds(1, 1))

	h.checks[0].run(context.Background())
	assert.Contains(t, h.failures(Readiness)["slow"], "deadline exceeded")
}

func TestStartStop(t *testing.T) {
	h := New()
	var (
		mu    sync.Mutex
		calls int
	)
	h.Add(Liveness, "counter", func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	h.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, 5*time.Millisecond)
	h.Stop()
	h.Stop()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, GoroutineCountCheck(100000)(ctx))
	assert.Error(t, GoroutineCountCheck(0)(ctx))

	assert.NoError(t, PingCheck(fakePinger{})(ctx))
	assert.ErrorContains(t, PingCheck(fakePinger{err: errors.New("refused")})(ctx), "refused")
}
