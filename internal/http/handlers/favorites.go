package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type FavoritesService interface {
	AddFavorite(ctx context.Context, actor user.Actor, providerID string) ([]string, error)
	RemoveFavorite(ctx context.Context, actor user.Actor, providerID string) ([]string, error)
	ListFavorites(ctx context.Context, actor user.Actor) ([]provider.Summary, error)
}

type FavoritesHandler struct {
	svc FavoritesService
}

func NewFavoritesHandler(svc FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{svc: svc}
}

func (h *FavoritesHandler) Add(ctx *gin.Context) {
	h.mutate(ctx, h.svc.AddFavorite, "Could not add favorite")
}

func (h *FavoritesHandler) Remove(ctx *gin.Context) {
	h.mutate(ctx, h.svc.RemoveFavorite, "Could not remove favorite")
}

func (h *FavoritesHandler) mutate(ctx *gin.Context, op func(context.Context, user.Actor, string) ([]string, error), fallback string) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	ids, err := op(cctx, actor, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, fallback)
		return
	}

	RespondData(ctx, http.StatusOK, ids)
}

func (h *FavoritesHandler) List(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.svc.ListFavorites(cctx, actor)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list favorites")
		return
	}

	RespondList(ctx, items, len(items), nil)
}
