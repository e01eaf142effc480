package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/jackc/pgx/v5"
)

type ProvidersRepo struct {
	db   Querier
	prom *observability.Prom
}

func NewProvidersRepo(db Querier, prom *observability.Prom) *ProvidersRepo {
	return &ProvidersRepo{db: db, prom: prom}
}

var providerColumn = map[string]string{
	"name":      "name",
	"address":   "address",
	"tel":       "tel",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

var filterOp = map[provider.Op]string{
	provider.OpEq:  "=",
	provider.OpNe:  "<>",
	provider.OpGt:  ">",
	provider.OpGte: ">=",
	provider.OpLt:  "<",
	provider.OpLte: "<=",
}

func (r *ProvidersRepo) Create(ctx context.Context, p provider.Provider) error {
	err := r.prom.ObserveDB("providers.create", func() error {
		_, e := r.db.Exec(ctx,
			`INSERT INTO providers (id, name, address, tel, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.Name, p.Address, p.Tel, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})
	if IsUniqueViolation(err) {
		return provider.ErrNameTaken
	}
	return err
}

func (r *ProvidersRepo) GetByID(ctx context.Context, id string) (p provider.Provider, err error) {
	err = r.prom.ObserveDB("providers.get_by_id", func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, name, address, tel, created_at, updated_at FROM providers WHERE id = $1`,
			id,
		).Scan(&p.ID, &p.Name, &p.Address, &p.Tel, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return provider.Provider{}, notFound(err, provider.ErrNotFound)
	}
	return p, nil
}

// List applies the parsed filters, sort and page. total counts every matching
// row, ignoring the page.
func (r *ProvidersRepo) List(ctx context.Context, q provider.ListQuery) (items []provider.Provider, total int, err error) {
	where, args := buildProviderWhere(q.Filters)

	err = r.prom.ObserveDB("providers.count", func() error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM providers`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	order := buildProviderOrder(q.Sort)
	n := len(args)
	query := fmt.Sprintf(
		`SELECT id, name, address, tel, created_at, updated_at FROM providers%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, order, n+1, n+2,
	)
	args = append(args, q.Limit, q.Offset())

	err = r.prom.ObserveDB("providers.list", func() error {
		rows, e := r.db.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		items, e = pgx.CollectRows(rows, func(row pgx.CollectableRow) (provider.Provider, error) {
			var p provider.Provider
			e := row.Scan(&p.ID, &p.Name, &p.Address, &p.Tel, &p.CreatedAt, &p.UpdatedAt)
			return p, e
		})
		return e
	})
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []provider.Provider{}
	}
	return items, total, nil
}

func buildProviderWhere(filters []provider.Filter) (string, []any) {
	var conds []string
	var args []any

	for _, f := range filters {
		col, ok := providerColumn[f.Field]
		if !ok {
			continue
		}
		vals := f.Args()

		if f.Op == provider.OpIn {
			holders := make([]string, len(vals))
			for i, v := range vals {
				args = append(args, v)
				holders[i] = fmt.Sprintf("$%d", len(args))
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", col, strings.Join(holders, ", ")))
			continue
		}

		args = append(args, vals[0])
		conds = append(conds, fmt.Sprintf("%s %s $%d", col, filterOp[f.Op], len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildProviderOrder(sorts []provider.SortField) string {
	var parts []string
	for _, s := range sorts {
		col, ok := providerColumn[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	// stable paging
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}

func (r *ProvidersRepo) Update(ctx context.Context, p provider.Provider) (out provider.Provider, err error) {
	err = r.prom.ObserveDB("providers.update", func() error {
		return r.db.QueryRow(ctx,
			`UPDATE providers SET name = $2, address = $3, tel = $4, updated_at = $5
			WHERE id = $1
			RETURNING id, name, address, tel, created_at, updated_at`,
			p.ID, p.Name, p.Address, p.Tel, p.UpdatedAt,
		).Scan(&out.ID, &out.Name, &out.Address, &out.Tel, &out.CreatedAt, &out.UpdatedAt)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return provider.Provider{}, provider.ErrNameTaken
		}
		return provider.Provider{}, notFound(err, provider.ErrNotFound)
	}
	return out, nil
}

// Delete removes the provider and every booking that references it in one
// transaction. It reports how many bookings were removed.
func (r *ProvidersRepo) Delete(ctx context.Context, id string) (removedBookings int64, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.prom.ObserveDB("providers.delete.bookings", func() error {
		tag, e := tx.Exec(ctx, `DELETE FROM bookings WHERE provider_id = $1`, id)
		removedBookings = tag.RowsAffected()
		return e
	})
	if err != nil {
		return 0, notFound(err, provider.ErrNotFound)
	}

	err = r.prom.ObserveDB("providers.delete", func() error {
		tag, e := tx.Exec(ctx, `DELETE FROM providers WHERE id = $1`, id)
		if e != nil {
			return e
		}
		if tag.RowsAffected() == 0 {
			return provider.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return removedBookings, nil
}
