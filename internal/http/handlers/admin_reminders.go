package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/reminder"
	"github.com/gin-gonic/gin"
)

type ReminderSweeper interface {
	Sweep(ctx context.Context) (reminder.Result, error)
}

type AdminRemindersHandler struct {
	sweeper ReminderSweeper
	stats   *observability.SweepStats
	timeout time.Duration
}

func NewAdminRemindersHandler(sweeper ReminderSweeper, stats *observability.SweepStats, timeout time.Duration) *AdminRemindersHandler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if stats == nil {
		stats = observability.NewSweepStats()
	}
	return &AdminRemindersHandler{sweeper: sweeper, stats: stats, timeout: timeout}
}

// Sweep handles POST /admin/reminders/sweep: runs one reminder sweep inline
// and returns its summary.
func (h *AdminRemindersHandler) Sweep(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.sweeper.Sweep(cctx)
	if err != nil {
		RespondError(ctx, http.StatusInternalServerError, "sweep_failed", "Could not select due bookings", res)
		return
	}

	RespondData(ctx, http.StatusOK, res)
}

// Status handles GET /admin/reminders/status.
func (h *AdminRemindersHandler) Status(ctx *gin.Context) {
	RespondData(ctx, http.StatusOK, h.stats.Snapshot())
}
