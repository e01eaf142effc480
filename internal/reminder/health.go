package reminder

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler exposes liveness, readiness, sweep stats and, when given,
// metrics for the worker process.
func (r *Runner) HealthHandler(metrics http.Handler) http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// ready once the schedule is armed and the database answers
	g.GET("/readyz", func(c *gin.Context) {
		if !r.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if r.db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := r.db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	g.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":    r.Ready(),
			"schedule": r.cfg.Schedule,
			"stats":    r.stats.Snapshot(),
		})
	})

	if metrics != nil {
		g.GET("/metrics", gin.WrapH(metrics))
	}

	return g
}
