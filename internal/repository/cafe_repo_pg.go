package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queries holds lookups shared by the pool-backed repositories and by booking transactions.
type queries struct {
	db dbtx
}

func (q queries) GetCafe(ctx context.Context, id int64) (*domain.Cafe, error) {
	var c domain.Cafe
	err := q.db.QueryRow(ctx, `SELECT id, name, address, active,
			to_char(work_start_time, 'HH24:MI'), to_char(work_end_time, 'HH24:MI'), slot_duration_minutes,
			created_at, updated_at
		FROM cafes WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.Active, &c.WorkStartTime, &c.WorkEndTime, &c.SlotDurationMinutes,
			&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "cafe %d", id)
	}
	return &c, nil
}

func (q queries) GetTable(ctx context.Context, id int64) (*domain.Table, error) {
	var t domain.Table
	err := q.db.QueryRow(ctx, `SELECT id, cafe_id, seats_count, coalesce(description, ''), active FROM tables WHERE id=$1`, id).
		Scan(&t.ID, &t.CafeID, &t.SeatsCount, &t.Description, &t.Active)
	if err != nil {
		return nil, notFound(err, "table %d", id)
	}
	return &t, nil
}

func (q queries) GetSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	var s domain.Slot
	err := q.db.QueryRow(ctx, `SELECT id, cafe_id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), active FROM slots WHERE id=$1`, id).
		Scan(&s.ID, &s.CafeID, &s.StartTime, &s.EndTime, &s.Active)
	if err != nil {
		return nil, notFound(err, "slot %d", id)
	}
	return &s, nil
}

func (q queries) GetDish(ctx context.Context, id int64) (*domain.Dish, error) {
	var d domain.Dish
	err := q.db.QueryRow(ctx, `SELECT id, name, price_cents, active FROM dishes WHERE id=$1`, id).
		Scan(&d.ID, &d.Name, &d.PriceCents, &d.Active)
	if err != nil {
		return nil, notFound(err, "dish %d", id)
	}
	return &d, nil
}

type PGCafeRepository struct {
	queries
	db *pgxpool.Pool
}

func NewCafeRepository(db *pgxpool.Pool) CafeRepository {
	return &PGCafeRepository{queries: queries{db: db}, db: db}
}

func (r *PGCafeRepository) ListTables(ctx context.Context, cafeID int64) ([]domain.Table, error) {
	rows, err := r.db.Query(ctx, `SELECT id, cafe_id, seats_count, coalesce(description, ''), active
		FROM tables WHERE cafe_id=$1 AND active ORDER BY id`, cafeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.CafeID, &t.SeatsCount, &t.Description, &t.Active); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (r *PGCafeRepository) ListSlots(ctx context.Context, cafeID int64) ([]domain.Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, cafe_id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), active
		FROM slots WHERE cafe_id=$1 AND active ORDER BY start_time, id`, cafeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.CafeID, &s.StartTime, &s.EndTime, &s.Active); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *PGCafeRepository) OccupiedKeys(ctx context.Context, cafeID int64, date time.Time) ([]domain.BookingKey, error) {
	rows, err := r.db.Query(ctx, `SELECT table_id, slot_id, date FROM bookings
		WHERE cafe_id=$1 AND date=$2 AND status <> $3 AND active`, cafeID, domain.DateOf(date), domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]domain.BookingKey, 0)
	for rows.Next() {
		var k domain.BookingKey
		if err := rows.Scan(&k.TableID, &k.SlotID, &k.Date); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PGCafeRepository) ManagedCafeIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT cafe_id FROM cafe_managers WHERE user_id=$1 ORDER BY cafe_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGCafeRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, `SELECT id, username, email, role, active FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &role, &u.Active)
	if err != nil {
		return nil, notFound(err, "user %d", id)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *PGCafeRepository) NotificationRecipients(ctx context.Context, cafeID int64) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT u.id, u.username, u.email, u.role, u.active
		FROM users u
		LEFT JOIN cafe_managers cm ON cm.user_id = u.id AND cm.cafe_id = $1
		WHERE u.active AND (cm.cafe_id IS NOT NULL OR u.role = $2)
		ORDER BY u.id`, cafeID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &role, &u.Active); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ CafeRepository = (*PGCafeRepository)(nil)
