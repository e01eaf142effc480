package reminder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sweeperFunc func(ctx context.Context) (Result, error)

func (f sweeperFunc) Sweep(ctx context.Context) (Result, error) { return f(ctx) }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNewRunner_RejectsBadSchedule(t *testing.T) {
	_, err := NewRunner(RunnerConfig{Schedule: "every hour"}, sweeperFunc(nil), nil, nil, nil)
	assert.Error(t, err)
}

func TestRunner_RunOnce(t *testing.T) {
	calls := 0
	r, err := NewRunner(RunnerConfig{Schedule: "0 * * * *"}, sweeperFunc(func(context.Context) (Result, error) {
		calls++
		return Result{Success: true, Sent: 2, Count: 2}, nil
	}), nil, nil, nil)
	require.NoError(t, err)

	res, err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, calls)
}

func TestRunner_ReadyLifecycle(t *testing.T) {
	dbUp := true
	r, err := NewRunner(RunnerConfig{Schedule: "@hourly"}, sweeperFunc(func(context.Context) (Result, error) {
		return Result{Success: true}, nil
	}), pingFunc(func(context.Context) error {
		if !dbUp {
			return errors.New("down")
		}
		return nil
	}), nil, nil)
	require.NoError(t, err)

	h := r.HealthHandler(nil)

	status := func(path string) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, status("/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, status("/readyz"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, r.Ready, time.Second, 10*time.Millisecond)
	assert.Equal(t, http.StatusOK, status("/readyz"))
	assert.Equal(t, http.StatusOK, status("/status"))

	dbUp = false
	assert.Equal(t, http.StatusServiceUnavailable, status("/readyz"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.False(t, r.Ready())
}
