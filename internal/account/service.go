package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/rentalhub/internal/auth"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/security"
)

type Users interface {
	Create(ctx context.Context, u user.User) error
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetResetToken(ctx context.Context, id string, tokenHash *string, expiresAt *time.Time) error
	ResetPassword(ctx context.Context, id, tokenHash, passwordHash string) error
}

type Favorites interface {
	Add(ctx context.Context, userID, providerID string) error
	Remove(ctx context.Context, userID, providerID string) error
	ListIDs(ctx context.Context, userID string) ([]string, error)
	ListProviders(ctx context.Context, userID string) ([]provider.Summary, error)
}

type Providers interface {
	GetByID(ctx context.Context, id string) (provider.Provider, error)
}

type Config struct {
	AllowAdminSignup bool
	PublicBaseURL    string
}

// Session is what a successful register, login or password reset returns.
type Session struct {
	Token string
	User  user.User
}

type Service struct {
	users     Users
	favorites Favorites
	providers Providers
	tokens    *auth.Manager
	notifier  notifications.Notifier
	cfg       Config
	log       *slog.Logger
}

func NewService(users Users, favorites Favorites, providers Providers, tokens *auth.Manager, notifier notifications.Notifier, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:     users,
		favorites: favorites,
		providers: providers,
		tokens:    tokens,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (Session, error) {
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}

	u := user.NewFromRegister(req, hash, s.cfg.AllowAdminSignup)
	if err := s.users.Create(ctx, u); err != nil {
		return Session{}, err
	}

	s.log.InfoContext(ctx, "account.registered", "user_id", u.ID, "role", u.Role)
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, req user.LoginRequest) (Session, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, user.ErrInvalidCredential
		}
		return Session{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return Session{}, user.ErrInvalidCredential
	}

	return s.session(u)
}

func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ForgotPassword issues a short-lived reset token and emails the reset link.
// If the email cannot be sent the stored token is cleared again.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return err
	}

	raw, expiresAt, err := s.tokens.GenerateResetToken(u.ID)
	if err != nil {
		return err
	}

	hash := s.tokens.HashToken(raw)
	if err := s.users.SetResetToken(ctx, u.ID, &hash, &expiresAt); err != nil {
		return err
	}

	msg, err := resetMessage(u, s.cfg.PublicBaseURL+"/api/v1/auth/resetpassword/"+raw, expiresAt)
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		s.log.WarnContext(ctx, "account.reset_email_failed", "user_id", u.ID, "err", err)
		if clearErr := s.users.SetResetToken(context.WithoutCancel(ctx), u.ID, nil, nil); clearErr != nil {
			s.log.ErrorContext(ctx, "account.reset_token_clear_failed", "user_id", u.ID, "err", clearErr)
		}
		return fmt.Errorf("%w: %v", notifications.ErrSendFailed, err)
	}

	s.log.InfoContext(ctx, "account.reset_requested", "user_id", u.ID)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, rawToken string, req user.ResetPasswordRequest) (Session, error) {
	claims, err := s.tokens.VerifyResetToken(rawToken)
	if err != nil {
		return Session{}, user.ErrInvalidResetToken
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}

	if err := s.users.ResetPassword(ctx, claims.UserID, s.tokens.HashToken(rawToken), hash); err != nil {
		return Session{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return Session{}, err
	}

	s.log.InfoContext(ctx, "account.password_reset", "user_id", u.ID)
	return s.session(u)
}

func (s *Service) session(u user.User) (Session, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}
