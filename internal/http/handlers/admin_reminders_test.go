package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/reminder"
)

type sweepFunc func(ctx context.Context) (reminder.Result, error)

func (f sweepFunc) Sweep(ctx context.Context) (reminder.Result, error) { return f(ctx) }

func TestAdminRemindersSweep(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		h := handlers.NewAdminRemindersHandler(sweepFunc(func(context.Context) (reminder.Result, error) {
			return reminder.Result{Found: 3, Sent: 2, Failed: 1, Count: 2, Success: true}, nil
		}), nil, time.Second)

		r := setupRouter(http.MethodPost, "/admin/reminders/sweep", as("a1", user.RoleAdmin), h.Sweep)
		w, env := do(t, r, http.MethodPost, "/admin/reminders/sweep", "")

		if w.Code != http.StatusOK || !env.Success {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("selection failure", func(t *testing.T) {
		h := handlers.NewAdminRemindersHandler(sweepFunc(func(context.Context) (reminder.Result, error) {
			return reminder.Result{Success: false}, errors.New("db down")
		}), nil, time.Second)

		r := setupRouter(http.MethodPost, "/admin/reminders/sweep", as("a1", user.RoleAdmin), h.Sweep)
		w, env := do(t, r, http.MethodPost, "/admin/reminders/sweep", "")

		if w.Code != http.StatusInternalServerError || env.Error.Code != "sweep_failed" {
			t.Fatalf("got status %d code %q", w.Code, env.Error.Code)
		}
	})
}

func TestAdminRemindersStatus(t *testing.T) {
	stats := observability.NewSweepStats()
	stats.Record(time.Now(), time.Second, 2, 0, nil)

	h := handlers.NewAdminRemindersHandler(nil, stats, 0)
	r := setupRouter(http.MethodGet, "/admin/reminders/status", h.Status)

	w, env := do(t, r, http.MethodGet, "/admin/reminders/status", "")
	if w.Code != http.StatusOK || len(env.Data) == 0 {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
