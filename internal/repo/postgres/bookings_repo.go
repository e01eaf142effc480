package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/jackc/pgx/v5"
)

type BookingsRepo struct {
	db   Querier
	prom *observability.Prom
}

func NewBookingsRepo(db Querier, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{db: db, prom: prom}
}

const bookingSelect = `SELECT b.id, b.booking_date, b.user_id, b.provider_id, b.reminder_sent, b.created_at, b.updated_at,
	p.id, p.name, p.address, p.tel
FROM bookings b
LEFT JOIN providers p ON p.id = b.provider_id`

func scanBooking(row interface{ Scan(...any) error }) (booking.Booking, error) {
	var b booking.Booking
	var pid, pname, paddr, ptel *string

	err := row.Scan(
		&b.ID, &b.Date, &b.UserID, &b.ProviderID, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
		&pid, &pname, &paddr, &ptel,
	)
	if err != nil {
		return booking.Booking{}, err
	}

	if pid != nil {
		b.Provider = &provider.Summary{ID: *pid, Name: deref(pname), Address: deref(paddr), Tel: deref(ptel)}
	}
	return b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateWithinQuota inserts b unless its owner already holds quota bookings.
// The owner's row is locked for the duration of the transaction so concurrent
// attempts by the same user serialize on the count. A quota <= 0 disables the
// check.
func (r *BookingsRepo) CreateWithinQuota(ctx context.Context, b booking.Booking, quota int) (out booking.Booking, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked string
	err = r.prom.ObserveDB("bookings.create.lock_owner", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, b.UserID).Scan(&locked)
	})
	if err != nil {
		err = notFound(err, user.ErrNotFound)
		return
	}

	if quota > 0 {
		var current int
		err = r.prom.ObserveDB("bookings.create.count", func() error {
			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, b.UserID).Scan(&current)
		})
		if err != nil {
			return
		}
		if current >= quota {
			err = booking.ErrQuotaExceeded
			return
		}
	}

	err = r.prom.ObserveDB("bookings.create.insert", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO bookings (id, booking_date, user_id, provider_id, reminder_sent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, b.Date, b.UserID, b.ProviderID, b.ReminderSent, b.CreatedAt, b.UpdatedAt,
		)
		return e
	})
	if err != nil {
		if IsForeignKeyViolation(err) || isMalformedID(err) {
			err = provider.ErrNotFound
		}
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}
	return b, nil
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (b booking.Booking, err error) {
	err = r.prom.ObserveDB("bookings.get_by_id", func() error {
		b, err = scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
		return err
	})
	if err != nil {
		return booking.Booking{}, notFound(err, booking.ErrNotFound)
	}
	return b, nil
}

func (r *BookingsRepo) List(ctx context.Context, f booking.ListFilter) (items []booking.Booking, total int, err error) {
	var conds []string
	var args []any

	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if f.ProviderID != nil {
		args = append(args, *f.ProviderID)
		conds = append(conds, fmt.Sprintf("b.provider_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	err = r.prom.ObserveDB("bookings.count", func() error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings b`+where, args...).Scan(&total)
	})
	if err != nil {
		if isMalformedID(err) {
			return []booking.Booking{}, 0, nil
		}
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 25
	}
	query := fmt.Sprintf(`%s%s ORDER BY b.booking_date ASC, b.id ASC LIMIT $%d OFFSET $%d`,
		bookingSelect, where, len(args)+1, len(args)+2)
	args = append(args, limit, max(f.Offset, 0))

	err = r.prom.ObserveDB("bookings.list", func() error {
		rows, e := r.db.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		defer rows.Close()

		items = make([]booking.Booking, 0)
		for rows.Next() {
			b, e := scanBooking(rows)
			if e != nil {
				return e
			}
			items = append(items, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies the patch. reminder_sent is left alone; only the sweep sets it.
func (r *BookingsRepo) Update(ctx context.Context, id string, p booking.Patch) (booking.Booking, error) {
	var updatedID string

	err := r.prom.ObserveDB("bookings.update", func() error {
		return r.db.QueryRow(ctx,
			`UPDATE bookings SET
				booking_date = COALESCE($2::timestamptz, booking_date),
				provider_id = COALESCE($3::uuid, provider_id),
				updated_at = NOW()
			WHERE id = $1
			RETURNING id`,
			id, p.Date, p.ProviderID,
		).Scan(&updatedID)
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return booking.Booking{}, provider.ErrNotFound
		}
		return booking.Booking{}, notFound(err, booking.ErrNotFound)
	}

	return r.GetByID(ctx, updatedID)
}

func (r *BookingsRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB("bookings.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		if err != nil {
			return notFound(err, booking.ErrNotFound)
		}
		if tag.RowsAffected() == 0 {
			return booking.ErrNotFound
		}
		return nil
	})
}

// ListDue returns bookings in [from, to) whose reminder has not been sent,
// joined with owner and provider details. Missing joins come back as nil.
func (r *BookingsRepo) ListDue(ctx context.Context, from, to time.Time) (out []booking.DueBooking, err error) {
	err = r.prom.ObserveDB("bookings.list_due", func() error {
		rows, e := r.db.Query(ctx,
			`SELECT b.id, b.booking_date, b.user_id, u.name, u.email,
				b.provider_id, p.name, p.address, p.tel
			FROM bookings b
			LEFT JOIN users u ON u.id = b.user_id
			LEFT JOIN providers p ON p.id = b.provider_id
			WHERE b.booking_date >= $1 AND b.booking_date < $2 AND b.reminder_sent = FALSE
			ORDER BY b.booking_date ASC, b.id ASC`,
			from, to,
		)
		if e != nil {
			return e
		}
		defer rows.Close()

		out = make([]booking.DueBooking, 0)
		for rows.Next() {
			var d booking.DueBooking
			if e := rows.Scan(
				&d.ID, &d.Date, &d.UserID, &d.UserName, &d.UserEmail,
				&d.ProviderID, &d.ProviderName, &d.ProviderAddress, &d.ProviderTel,
			); e != nil {
				return e
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	return
}

// MarkReminderSent flips the flag only if it is still false. It reports
// whether this call made the transition.
func (r *BookingsRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	var flipped bool

	err := r.prom.ObserveDB("bookings.mark_reminder_sent", func() error {
		tag, e := r.db.Exec(ctx,
			`UPDATE bookings SET reminder_sent = TRUE, updated_at = NOW()
			WHERE id = $1 AND reminder_sent = FALSE`,
			id,
		)
		if e != nil {
			return e
		}
		flipped = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return flipped, nil
}
