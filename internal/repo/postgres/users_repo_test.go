package postgres

import (
	"context"
	"testing"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUsersRepo(mock, nil)
	u := user.NewFromRegister(user.RegisterRequest{Name: "Ann", Telephone: "0812345678", Email: "ann@example.com", Password: "secret1"}, "hash", false)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Name, u.Telephone, u.Email, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), u)

	assert.ErrorIs(t, err, user.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPassword_ConsumedOrExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewUsersRepo(mock, nil)

	mock.ExpectExec(`UPDATE users`).
		WithArgs("u1", "tokenhash", "newhash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ResetPassword(context.Background(), "u1", "tokenhash", "newhash")

	assert.ErrorIs(t, err, user.ErrInvalidResetToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavorites_AddDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewFavoritesRepo(mock, nil)

	mock.ExpectExec(`INSERT INTO user_favorites`).
		WithArgs("u1", "p1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.Add(context.Background(), "u1", "p1")

	assert.ErrorIs(t, err, user.ErrFavoriteExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavorites_AddUnknownProvider(t *testing.T) {
	mock := newMock(t)
	repo := NewFavoritesRepo(mock, nil)

	mock.ExpectExec(`INSERT INTO user_favorites`).
		WithArgs("u1", "p404").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Add(context.Background(), "u1", "p404")

	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavorites_RemoveMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewFavoritesRepo(mock, nil)

	mock.ExpectExec(`DELETE FROM user_favorites`).
		WithArgs("u1", "p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Remove(context.Background(), "u1", "p1")

	assert.ErrorIs(t, err, user.ErrFavoriteMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}
