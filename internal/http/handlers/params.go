package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// actorFrom returns the authenticated caller, writing a 401 when the auth
// middleware did not run.
func actorFrom(ctx *gin.Context) (user.Actor, bool) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized to access this route")
		return user.Actor{}, false
	}
	return actor, true
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return n
}

// pageFrom reads ?page and ?limit, clamping limit to maxPageLimit.
func pageFrom(ctx *gin.Context) (page, limit int, ok bool) {
	page = parseIntDefault(ctx.Query("page"), 1)
	limit = parseIntDefault(ctx.Query("limit"), defaultPageLimit)

	if page < 1 || limit < 1 {
		RespondError(ctx, http.StatusBadRequest, "invalid_query", "page and limit must be positive integers", nil)
		return 0, 0, false
	}

	limit = min(limit, maxPageLimit)
	if page > math.MaxInt/limit {
		RespondError(ctx, http.StatusBadRequest, "invalid_query", "page is out of range", nil)
		return 0, 0, false
	}
	return page, limit, true
}
