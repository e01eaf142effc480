package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/account"
	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (account.Session, error)
	Login(ctx context.Context, req user.LoginRequest) (account.Session, error)
	Me(ctx context.Context, userID string) (user.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken string, req user.ResetPasswordRequest) (account.Session, error)
}

// CookieConfig controls the session cookie set next to the bearer token.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	svc    AccountService
	cookie CookieConfig
}

func NewAuthHandler(svc AccountService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &AuthHandler{svc: svc, cookie: cookie}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create user")
		return
	}

	h.sendToken(ctx, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	sess, err := h.svc.Login(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not log in")
		return
	}

	h.sendToken(ctx, http.StatusOK, sess)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.svc.Me(cctx, actor.ID)
	if err != nil {
		RespondDomainError(ctx, err, "Could not load user")
		return
	}

	RespondData(ctx, http.StatusOK, u)
}

// Logout only clears the cookie. Tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setCookie(ctx, "", -1)
	RespondData(ctx, http.StatusOK, gin.H{})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// covers the SMTP round trip
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.svc.ForgotPassword(cctx, req.Email); err != nil {
		RespondDomainError(ctx, err, "Email could not be sent")
		return
	}

	RespondData(ctx, http.StatusOK, "Email sent")
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.svc.ResetPassword(cctx, ctx.Param("resettoken"), req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not reset password")
		return
	}

	h.sendToken(ctx, http.StatusOK, sess)
}

func (h *AuthHandler) sendToken(ctx *gin.Context, status int, sess account.Session) {
	h.setCookie(ctx, sess.Token, int(h.cookie.TTL.Seconds()))

	ctx.JSON(status, gin.H{
		"success": true,
		"_id":     sess.User.ID,
		"name":    sess.User.Name,
		"email":   sess.User.Email,
		"token":   sess.Token,
	})
}

func (h *AuthHandler) setCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		h.cookie.Name,
		value,
		maxAge,
		"/",
		"",
		h.cookie.Secure,
		true, // HttpOnly.
	)
}
