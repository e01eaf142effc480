package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/gin-gonic/gin"
)

type ProvidersStore interface {
	Create(ctx context.Context, p provider.Provider) error
	GetByID(ctx context.Context, id string) (provider.Provider, error)
	List(ctx context.Context, q provider.ListQuery) ([]provider.Provider, int, error)
	Update(ctx context.Context, p provider.Provider) (provider.Provider, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type ProvidersHandler struct {
	repo ProvidersStore
}

func NewProvidersHandler(repo ProvidersStore) *ProvidersHandler {
	return &ProvidersHandler{repo: repo}
}

// List handles GET /providers?name[in]=a,b&select=name,tel&sort=-createdAt&page=2&limit=10
func (h *ProvidersHandler) List(ctx *gin.Context) {
	q, err := provider.ParseListQuery(ctx.Request.URL.Query())
	if err != nil {
		RespondDomainError(ctx, err, "Could not list providers")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, q)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list providers")
		return
	}

	pagination := NewPagination(q.Page, q.Limit, total)

	if len(q.Select) == 0 {
		RespondList(ctx, items, len(items), pagination)
		return
	}

	projected := make([]map[string]any, 0, len(items))
	for _, p := range items {
		projected = append(projected, p.Project(q.Select))
	}
	RespondList(ctx, projected, len(projected), pagination)
}

func (h *ProvidersHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch provider")
		return
	}

	RespondDataWithETag(ctx, p)
}

func (h *ProvidersHandler) Create(ctx *gin.Context) {
	var req provider.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p := provider.NewFromCreateRequest(req)
	if err := h.repo.Create(cctx, p); err != nil {
		RespondDomainError(ctx, err, "Could not create provider")
		return
	}

	RespondData(ctx, http.StatusCreated, p)
}

func (h *ProvidersHandler) Update(ctx *gin.Context) {
	var req provider.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "Nothing to update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	current, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not update provider")
		return
	}

	updated, err := h.repo.Update(cctx, current.Apply(req))
	if err != nil {
		RespondDomainError(ctx, err, "Could not update provider")
		return
	}

	RespondData(ctx, http.StatusOK, updated)
}

// Delete removes the provider and every booking made with it.
func (h *ProvidersHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	removed, err := h.repo.Delete(cctx, id)
	if err != nil {
		RespondDomainError(ctx, err, "Could not delete provider")
		return
	}

	slog.Default().InfoContext(ctx.Request.Context(), "provider.deleted",
		"provider_id", id,
		"bookings_removed", removed,
	)
	RespondData(ctx, http.StatusOK, gin.H{})
}
