package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/observability"
)

type UsersRepo struct {
	db   Querier
	prom *observability.Prom
}

func NewUsersRepo(db Querier, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

const userColumns = `u.id, u.name, u.telephone, u.email, u.role, u.password_hash,
	u.reset_password_token_hash, u.reset_password_expires_at, u.created_at, u.updated_at,
	COALESCE(ARRAY(SELECT f.provider_id::text FROM user_favorites f WHERE f.user_id = u.id ORDER BY f.created_at, f.provider_id), '{}')`

func scanUser(row interface{ Scan(...any) error }) (u user.User, err error) {
	err = row.Scan(
		&u.ID, &u.Name, &u.Telephone, &u.Email, &u.Role, &u.PasswordHash,
		&u.ResetTokenHash, &u.ResetExpiresAt, &u.CreatedAt, &u.UpdatedAt,
		&u.Favorites,
	)
	return
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.prom.ObserveDB("users.create", func() error {
		_, e := r.db.Exec(ctx,
			`INSERT INTO users (id, name, telephone, email, role, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			u.ID, u.Name, u.Telephone, u.Email, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})
	if IsUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_id", func() error {
		u, err = scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
		return err
	})
	if err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_by_email", func() error {
		u, err = scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email))
		return err
	})
	if err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return u, nil
}

// SetResetToken stores (or, with a nil hash, clears) the pending reset token.
func (r *UsersRepo) SetResetToken(ctx context.Context, id string, tokenHash *string, expiresAt *time.Time) error {
	return r.prom.ObserveDB("users.set_reset_token", func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE users
			SET reset_password_token_hash = $2, reset_password_expires_at = $3, updated_at = NOW()
			WHERE id = $1`,
			id, tokenHash, expiresAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

// ResetPassword swaps the password hash and consumes the reset token in one
// statement, so a token can be used at most once.
func (r *UsersRepo) ResetPassword(ctx context.Context, id, tokenHash, passwordHash string) error {
	return r.prom.ObserveDB("users.reset_password", func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE users
			SET password_hash = $3,
				reset_password_token_hash = NULL,
				reset_password_expires_at = NULL,
				updated_at = NOW()
			WHERE id = $1
				AND reset_password_token_hash = $2
				AND reset_password_expires_at > NOW()`,
			id, tokenHash, passwordHash,
		)
		if err != nil {
			return notFound(err, user.ErrInvalidResetToken)
		}
		if tag.RowsAffected() == 0 {
			return user.ErrInvalidResetToken
		}
		return nil
	})
}
