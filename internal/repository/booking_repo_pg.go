package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, user_id, cafe_id, table_id, slot_id, date, status, note, reminder_sent, active, created_at, updated_at`

type PGBookingRepository struct {
	db         *pgxpool.Pool
	maxRetries int
}

func NewBookingRepository(db *pgxpool.Pool, maxRetries int) BookingRepository {
	return &PGBookingRepository{db: db, maxRetries: maxRetries}
}

// InTx runs fn inside a SERIALIZABLE transaction and retries the whole unit on
// serialization failures, so a concurrent writer on the same key is always
// observed by the conflict check of the next attempt.
func (r *PGBookingRepository) InTx(ctx context.Context, fn func(tx BookingTx) error) error {
	return retryTx(ctx, r.maxRetries, func() error {
		tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := fn(&pgBookingTx{queries: queries{db: tx}}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	q := queries{db: r.db}
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "booking %d", id)
	}
	items, err := q.lineItems(ctx, []int64{b.ID})
	if err != nil {
		return nil, err
	}
	b.LineItems = items[b.ID]
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.CafeScope != nil {
		if filter.ScopeOwner != nil {
			args = append(args, filter.CafeScope, *filter.ScopeOwner)
			where = append(where, fmt.Sprintf("(cafe_id = ANY($%d) OR user_id = $%d)", len(args)-1, len(args)))
		} else {
			add("cafe_id = ANY($%d)", filter.CafeScope)
		}
	}
	if filter.CafeID != nil {
		add("cafe_id = $%d", *filter.CafeID)
	}
	if filter.Date != nil {
		add("date = $%d", domain.DateOf(*filter.Date))
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]int64, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	items, err := queries{db: r.db}.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].LineItems = items[bookings[i].ID]
	}
	return bookings, nil
}

func (r *PGBookingRepository) MarkRemindersDue(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET reminder_sent = true, updated_at = now()
		WHERE date = $1 AND status = $2 AND active AND NOT reminder_sent
		RETURNING `+bookingColumns, domain.DateOf(date), domain.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

type pgBookingTx struct {
	queries
}

func (t *pgBookingTx) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(t.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "booking %d", id)
	}
	items, err := t.lineItems(ctx, []int64{b.ID})
	if err != nil {
		return nil, err
	}
	b.LineItems = items[b.ID]
	return b, nil
}

func (t *pgBookingTx) HasConflict(ctx context.Context, key domain.BookingKey, excludeID int64) (bool, error) {
	var exists bool
	err := t.db.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE table_id = $1 AND slot_id = $2 AND date = $3
			  AND status <> $4 AND active AND id <> $5
		)`, key.TableID, key.SlotID, domain.DateOf(key.Date), domain.BookingStatusCancelled, excludeID).Scan(&exists)
	return exists, err
}

func (t *pgBookingTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	return t.db.QueryRow(ctx, `INSERT INTO bookings (user_id, cafe_id, table_id, slot_id, date, status, note, reminder_sent, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		b.UserID, b.CafeID, b.TableID, b.SlotID, domain.DateOf(b.Date), b.Status, b.Note, b.ReminderSent, b.Active).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (t *pgBookingTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	err := t.db.QueryRow(ctx, `UPDATE bookings
		SET cafe_id=$2, table_id=$3, slot_id=$4, date=$5, status=$6, note=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		b.ID, b.CafeID, b.TableID, b.SlotID, domain.DateOf(b.Date), b.Status, b.Note).Scan(&b.UpdatedAt)
	return notFound(err, "booking %d", b.ID)
}

func (t *pgBookingTx) DeleteLineItems(ctx context.Context, bookingID int64) error {
	_, err := t.db.Exec(ctx, `DELETE FROM booking_line_items WHERE booking_id=$1`, bookingID)
	return err
}

func (t *pgBookingTx) InsertLineItems(ctx context.Context, items []domain.LineItem) error {
	for i := range items {
		li := &items[i]
		if err := t.db.QueryRow(ctx, `INSERT INTO booking_line_items (booking_id, dish_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4) RETURNING id`, li.BookingID, li.DishID, li.Quantity, li.PriceCents).Scan(&li.ID); err != nil {
			return err
		}
	}
	return nil
}

// lineItems loads the line items of the given bookings keyed by booking id.
func (q queries) lineItems(ctx context.Context, bookingIDs []int64) (map[int64][]domain.LineItem, error) {
	rows, err := q.db.Query(ctx, `SELECT li.id, li.booking_id, li.dish_id, d.name, li.quantity, li.price_cents
		FROM booking_line_items li
		JOIN dishes d ON d.id = li.dish_id
		WHERE li.booking_id = ANY($1)
		ORDER BY li.id`, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]domain.LineItem, len(bookingIDs))
	for rows.Next() {
		var li domain.LineItem
		if err := rows.Scan(&li.ID, &li.BookingID, &li.DishID, &li.DishName, &li.Quantity, &li.PriceCents); err != nil {
			return nil, err
		}
		items[li.BookingID] = append(items[li.BookingID], li)
	}
	return items, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CafeID, &b.TableID, &b.SlotID, &b.Date, &status, &b.Note,
		&b.ReminderSent, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
var _ BookingTx = (*pgBookingTx)(nil)
