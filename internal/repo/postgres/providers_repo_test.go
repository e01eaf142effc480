package postgres

import (
	"context"
	"net/url"
	"testing"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteProvider_CascadesBookings(t *testing.T) {
	mock := newMock(t)
	repo := NewProvidersRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bookings WHERE provider_id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec(`DELETE FROM providers WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProvider_MissingRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewProvidersRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bookings WHERE provider_id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM providers WHERE id = \$1`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "p1")

	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProvider_DuplicateName(t *testing.T) {
	mock := newMock(t)
	repo := NewProvidersRepo(mock, nil)
	p := provider.NewFromCreateRequest(provider.CreateRequest{Name: "Hertz", Address: "Main St", Tel: "0812345678"})

	mock.ExpectExec(`INSERT INTO providers`).
		WithArgs(p.ID, p.Name, p.Address, p.Tel, p.CreatedAt, p.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), p)

	assert.ErrorIs(t, err, provider.ErrNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildProviderWhere(t *testing.T) {
	v, err := url.ParseQuery("name[in]=Hertz,Avis&tel[gte]=0800000000")
	require.NoError(t, err)
	q, err := provider.ParseListQuery(v)
	require.NoError(t, err)

	where, args := buildProviderWhere(q.Filters)

	assert.Equal(t, " WHERE name IN ($1, $2) AND tel >= $3", where)
	assert.Equal(t, []any{"Hertz", "Avis", "0800000000"}, args)
}

func TestBuildProviderOrder(t *testing.T) {
	got := buildProviderOrder([]provider.SortField{{Field: "name"}, {Field: "createdAt", Desc: true}})
	assert.Equal(t, "name ASC, created_at DESC, id ASC", got)
}
