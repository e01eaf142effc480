package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/security"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{booking.ErrInvalidDate, http.StatusBadRequest, "invalid_request", "date must be an RFC 3339 timestamp"},
	{booking.ErrEmptyUpdate, http.StatusBadRequest, "invalid_request", "Nothing to update"},
	{booking.ErrForbidden, http.StatusBadRequest, "not_owner", "You are not authorized to modify this booking"},
	{booking.ErrQuotaExceeded, http.StatusBadRequest, "quota_exceeded", "You have already made 3 bookings"},
	{provider.ErrInvalidQuery, http.StatusBadRequest, "invalid_query", ""},
	{security.ErrPasswordTooShort, http.StatusBadRequest, "invalid_request", "Password must be at least 6 characters"},
	{user.ErrFavoriteExists, http.StatusBadRequest, "favorite_exists", "Provider is already in favorites"},
	{user.ErrFavoriteMissing, http.StatusBadRequest, "favorite_missing", "Provider is not in favorites"},
	{user.ErrInvalidResetToken, http.StatusBadRequest, "invalid_token", "Invalid or expired reset token"},
	{user.ErrInvalidCredential, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect"},
	{booking.ErrNotFound, http.StatusNotFound, "not_found", "Booking not found"},
	{provider.ErrNotFound, http.StatusNotFound, "not_found", "Provider not found"},
	{user.ErrNotFound, http.StatusNotFound, "not_found", "User not found"},
	{user.ErrEmailTaken, http.StatusConflict, "email_taken", "Email is already in use"},
	{provider.ErrNameTaken, http.StatusConflict, "name_taken", "Provider name is already in use"},
	{notifications.ErrCircuitOpen, http.StatusInternalServerError, "email_not_sent", "Email could not be sent"},
	{notifications.ErrSendFailed, http.StatusInternalServerError, "email_not_sent", "Email could not be sent"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", "Request timed out"},
}

// RespondDomainError writes the envelope for err. Unknown errors are logged
// and reported as fallback with a 500.
func RespondDomainError(ctx *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		RespondError(ctx, m.status, m.code, msg, nil)
		return
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "http.unexpected_error",
		"route", ctx.FullPath(),
		"request_id", requestIDFrom(ctx),
		"err", err,
	)
	RespondInternal(ctx, fallback)
}
