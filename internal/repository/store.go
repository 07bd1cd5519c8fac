package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BookingRepository is the booking half of the entity store. Mutations only
// happen through InTx so that the conflict check and the write share one
// serializable transaction.
type BookingRepository interface {
	InTx(ctx context.Context, fn func(tx BookingTx) error) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	// MarkRemindersDue flags confirmed bookings on date that were not reminded yet
	// and returns exactly the rows it flipped.
	MarkRemindersDue(ctx context.Context, date time.Time) ([]domain.Booking, error)
}

// BookingTx is the set of operations available inside a booking transaction.
type BookingTx interface {
	GetCafe(ctx context.Context, id int64) (*domain.Cafe, error)
	GetTable(ctx context.Context, id int64) (*domain.Table, error)
	GetSlot(ctx context.Context, id int64) (*domain.Slot, error)
	GetDish(ctx context.Context, id int64) (*domain.Dish, error)
	GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	// HasConflict reports whether another active, non-cancelled booking holds key.
	// excludeID of zero excludes nothing.
	HasConflict(ctx context.Context, key domain.BookingKey, excludeID int64) (bool, error)
	InsertBooking(ctx context.Context, b *domain.Booking) error
	UpdateBooking(ctx context.Context, b *domain.Booking) error
	DeleteLineItems(ctx context.Context, bookingID int64) error
	InsertLineItems(ctx context.Context, items []domain.LineItem) error
}

// CafeRepository serves read-only reference data for browsing and notifications.
type CafeRepository interface {
	GetCafe(ctx context.Context, id int64) (*domain.Cafe, error)
	ListTables(ctx context.Context, cafeID int64) ([]domain.Table, error)
	ListSlots(ctx context.Context, cafeID int64) ([]domain.Slot, error)
	OccupiedKeys(ctx context.Context, cafeID int64, date time.Time) ([]domain.BookingKey, error)
	ManagedCafeIDs(ctx context.Context, userID int64) ([]int64, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	// NotificationRecipients returns the café's managers plus every active admin.
	NotificationRecipients(ctx context.Context, cafeID int64) ([]domain.User, error)
}

// BookingFilter narrows List. CafeScope, when non-nil, restricts results to
// those cafés regardless of CafeID; bookings of ScopeOwner are kept as well.
type BookingFilter struct {
	UserID     *int64
	CafeID     *int64
	CafeScope  []int64
	ScopeOwner *int64
	Date      *time.Time
	Status    *domain.BookingStatus
	Offset    int
	Limit     int
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
