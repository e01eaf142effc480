package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Telephone    string    `json:"telephone"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Favorites    []string  `json:"favorites"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	ResetTokenHash *string    `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
}

// Actor is the authenticated caller as resolved from a session token.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrFavoriteExists    = errors.New("provider already in favorites")
	ErrFavoriteMissing   = errors.New("provider not in favorites")
)

var telephonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidTelephone reports whether s is exactly ten ASCII digits.
func ValidTelephone(s string) bool {
	return telephonePattern.MatchString(s)
}

type RegisterRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	Telephone string `json:"telephone" binding:"required,telephone"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// NewFromRegister builds a User from the incoming DTO. allowAdmin controls
// whether a requested admin role is honoured.
func NewFromRegister(req RegisterRequest, passwordHash string, allowAdmin bool) User {
	now := time.Now().UTC()

	role := RoleUser
	if req.Role == RoleAdmin && allowAdmin {
		role = RoleAdmin
	}

	return User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Telephone:    req.Telephone,
		Email:        NormalizeEmail(req.Email),
		Role:         role,
		PasswordHash: passwordHash,
		Favorites:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
