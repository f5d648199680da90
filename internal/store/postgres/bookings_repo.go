package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
)

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *BookingRepo) List(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("kind = ?", kind).
		Where("owner_id = ?", ownerID).
		OrderExpr("year ASC, month ASC, day ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

// InOwnerTransaction serializes all booking writes for one owner with a
// postgres advisory transaction lock, so the fetch/conflict-check/write
// sequence cannot interleave with another request for the same owner. Quote
// writes lock the client's calendar too: the quote conflict scope spans both
// sides, and two owners racing on one client need a shared serialization key.
func (r *BookingRepo) InOwnerTransaction(ctx context.Context, ownerID uuid.UUID, clientID *uuid.UUID, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockCalendars(ctx, tx, ownerID, clientID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

// lockCalendars takes the advisory locks in sorted key order so transactions
// over the same owner/client pair cannot deadlock.
func lockCalendars(ctx context.Context, tx bun.Tx, ownerID uuid.UUID, clientID *uuid.UUID) error {
	keys := []string{ownerID.String()}
	if clientID != nil && *clientID != ownerID {
		keys = append(keys, clientID.String())
		sort.Strings(keys)
	}
	for _, key := range keys {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r bookingTx) ListActiveBookings(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID, clientID *uuid.UUID, date domain.CalendarDate, exclude uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	q := r.tx.NewSelect().
		Model(&rows).
		Where("kind = ?", kind).
		Where("status = TRUE").
		Where("is_default = FALSE").
		Where("day = ?", date.Day).
		Where("month = ?", date.Month).
		Where("year = ?", date.Year).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("owner_id = ?", ownerID)
			if clientID != nil {
				q = q.WhereOr("client_id = ?", *clientID)
			}
			return q
		})
	if exclude != uuid.Nil {
		q = q.Where("id != ?", exclude)
	}
	err := q.OrderExpr("start_time ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r bookingTx) FindBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := r.tx.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r bookingTx) InsertBooking(ctx context.Context, b domain.Booking, productIDs []uuid.UUID) (domain.Booking, error) {
	m := b
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Booking{}, mapWriteError(err)
	}

	if len(productIDs) > 0 {
		links := make([]domain.BookingProduct, 0, len(productIDs))
		for _, pid := range productIDs {
			links = append(links, domain.BookingProduct{BookingID: m.ID, ProductID: pid})
		}
		if _, err := r.tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return domain.Booking{}, err
		}
	}

	return m, nil
}

func (r bookingTx) UpdateBooking(ctx context.Context, b domain.Booking, productIDs []uuid.UUID) (domain.Booking, error) {
	m := b
	res, err := r.tx.NewUpdate().
		Model(&m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Booking{}, err
	}
	if affected == 0 {
		return domain.Booking{}, store.ErrNotFound
	}

	if productIDs != nil {
		_, err = r.tx.NewDelete().
			Model((*domain.BookingProduct)(nil)).
			Where("booking_id = ?", m.ID).
			Exec(ctx)
		if err != nil {
			return domain.Booking{}, err
		}
		if len(productIDs) > 0 {
			links := make([]domain.BookingProduct, 0, len(productIDs))
			for _, pid := range productIDs {
				links = append(links, domain.BookingProduct{BookingID: m.ID, ProductID: pid})
			}
			if _, err := r.tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return domain.Booking{}, err
			}
		}
	}

	return m, nil
}

func (r bookingTx) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.NewDelete().
		Model((*domain.BookingProduct)(nil)).
		Where("booking_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	res, err := r.tx.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r bookingTx) FindOwner(ctx context.Context, id uuid.UUID) (domain.Owner, error) {
	var o domain.Owner
	err := r.tx.NewSelect().
		Model(&o).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Owner{}, store.ErrNotFound
		}
		return domain.Owner{}, err
	}
	return o, nil
}

func (r bookingTx) FindClient(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	var c domain.Client
	err := r.tx.NewSelect().
		Model(&c).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, store.ErrNotFound
		}
		return domain.Client{}, err
	}
	return c, nil
}

func (r bookingTx) FindProducts(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Product
	err := r.tx.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r bookingTx) FindBookingProducts(ctx context.Context, bookingID uuid.UUID) ([]domain.Product, error) {
	var rows []domain.Product
	err := r.tx.NewSelect().
		Model(&rows).
		Join("JOIN booking_products AS bp ON bp.product_id = product.id").
		Where("bp.booking_id = ?", bookingID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mapWriteError converts the bookings_no_overlap exclusion constraint into
// the conflict sentinel. The advisory lock makes this unreachable for
// requests going through InOwnerTransaction; the constraint stays as the
// commit-time backstop for any other writer.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == "bookings_no_overlap" {
			return store.ErrConflict
		}
	}
	return err
}
