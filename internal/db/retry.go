package db

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 10 * time.Second
)

// Backoff returns the delay before retry number attempt (0-based):
// 500ms, 1s, 2s ... capped at 10s, plus up to 250ms of jitter.
func Backoff(attempt int) time.Duration {
	delay := backoffCap
	if attempt < 16 {
		delay = time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
	}

	if delay > backoffCap {
		delay = backoffCap
	}

	// jitter so replicas started together don't retry in lockstep
	return delay + time.Duration(rand.Intn(250))*time.Millisecond
}

// NewPoolWithRetry calls NewPool until it succeeds, attempts run out or ctx
// is cancelled. The database container often comes up after the API.
func NewPoolWithRetry(ctx context.Context, dbURL string, maxConns, attempts int, log *slog.Logger) (*pgxpool.Pool, error) {
	if attempts < 1 {
		attempts = 1
	}
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		pool, err := NewPool(ctx, dbURL, maxConns)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := Backoff(attempt)
		log.WarnContext(ctx, "db.connect_retry", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("connect db after %d attempts: %w", attempts, lastErr)
}
