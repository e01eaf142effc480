package postgres

import (
	"context"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/jackc/pgx/v5"
)

type FavoritesRepo struct {
	db   Querier
	prom *observability.Prom
}

func NewFavoritesRepo(db Querier, prom *observability.Prom) *FavoritesRepo {
	return &FavoritesRepo{db: db, prom: prom}
}

func (r *FavoritesRepo) Add(ctx context.Context, userID, providerID string) error {
	return r.prom.ObserveDB("favorites.add", func() error {
		tag, err := r.db.Exec(ctx,
			`INSERT INTO user_favorites (user_id, provider_id) VALUES ($1, $2)
			ON CONFLICT (user_id, provider_id) DO NOTHING`,
			userID, providerID,
		)
		if err != nil {
			if IsForeignKeyViolation(err) || isMalformedID(err) {
				return provider.ErrNotFound
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrFavoriteExists
		}
		return nil
	})
}

func (r *FavoritesRepo) Remove(ctx context.Context, userID, providerID string) error {
	return r.prom.ObserveDB("favorites.remove", func() error {
		tag, err := r.db.Exec(ctx,
			`DELETE FROM user_favorites WHERE user_id = $1 AND provider_id = $2`,
			userID, providerID,
		)
		if err != nil {
			return notFound(err, user.ErrFavoriteMissing)
		}
		if tag.RowsAffected() == 0 {
			return user.ErrFavoriteMissing
		}
		return nil
	})
}

func (r *FavoritesRepo) ListIDs(ctx context.Context, userID string) (ids []string, err error) {
	err = r.prom.ObserveDB("favorites.list_ids", func() error {
		rows, e := r.db.Query(ctx,
			`SELECT provider_id::text FROM user_favorites WHERE user_id = $1 ORDER BY created_at, provider_id`,
			userID,
		)
		if e != nil {
			return e
		}
		ids, e = pgx.CollectRows(rows, pgx.RowTo[string])
		return e
	})
	if ids == nil {
		ids = []string{}
	}
	return
}

func (r *FavoritesRepo) ListProviders(ctx context.Context, userID string) (out []provider.Summary, err error) {
	err = r.prom.ObserveDB("favorites.list_providers", func() error {
		rows, e := r.db.Query(ctx,
			`SELECT p.id, p.name, p.address, p.tel
			FROM user_favorites f
			JOIN providers p ON p.id = f.provider_id
			WHERE f.user_id = $1
			ORDER BY f.created_at, p.id`,
			userID,
		)
		if e != nil {
			return e
		}
		defer rows.Close()

		out = make([]provider.Summary, 0)
		for rows.Next() {
			var s provider.Summary
			if e := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Tel); e != nil {
				return e
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return
}
