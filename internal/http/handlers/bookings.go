package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/admission"
	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type BookingsService interface {
	Create(ctx context.Context, actor user.Actor, providerID string, req booking.CreateRequest) (booking.Booking, error)
	List(ctx context.Context, actor user.Actor, providerID *string, page admission.Page) ([]booking.Booking, int, error)
	Get(ctx context.Context, actor user.Actor, id string) (booking.Booking, error)
	Update(ctx context.Context, actor user.Actor, id string, req booking.UpdateRequest) (booking.Booking, error)
	Delete(ctx context.Context, actor user.Actor, id string) error
}

type BookingsHandler struct {
	svc BookingsService
}

func NewBookingsHandler(svc BookingsService) *BookingsHandler {
	return &BookingsHandler{svc: svc}
}

// List handles GET /bookings and GET /providers/:id/bookings. Non-admins
// only ever see their own bookings.
func (h *BookingsHandler) List(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	page, limit, ok := pageFrom(ctx)
	if !ok {
		return
	}

	var providerID *string
	if id := ctx.Param("id"); id != "" {
		providerID = &id
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.svc.List(cctx, actor, providerID, admission.Page{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		RespondDomainError(ctx, err, "Cannot find bookings")
		return
	}

	RespondList(ctx, items, len(items), NewPagination(page, limit, total))
}

func (h *BookingsHandler) Get(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	b, err := h.svc.Get(cctx, actor, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Cannot find booking")
		return
	}

	RespondData(ctx, http.StatusOK, b)
}

// Create handles POST /providers/:id/bookings.
func (h *BookingsHandler) Create(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	var req booking.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	b, err := h.svc.Create(cctx, actor, ctx.Param("id"), req)
	if err != nil {
		RespondDomainError(ctx, err, "Cannot create booking")
		return
	}

	RespondData(ctx, http.StatusCreated, b)
}

func (h *BookingsHandler) Update(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	var req booking.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	b, err := h.svc.Update(cctx, actor, ctx.Param("id"), req)
	if err != nil {
		RespondDomainError(ctx, err, "Cannot update booking")
		return
	}

	RespondData(ctx, http.StatusOK, b)
}

func (h *BookingsHandler) Delete(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.Delete(cctx, actor, ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err, "Cannot delete booking")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{})
}
