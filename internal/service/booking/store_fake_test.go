package booking

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/repository"
)

// memStore is an in-memory BookingRepository. Transactions are serialized and
// rolled back on error, and the active-slot uniqueness rule is enforced on write
// the same way the partial unique index does it in Postgres.
type memStore struct {
	mu sync.Mutex

	cafes  map[int64]domain.Cafe
	tables map[int64]domain.Table
	slots  map[int64]domain.Slot
	dishes map[int64]domain.Dish

	bookings map[int64]domain.Booking
	items    map[int64][]domain.LineItem
	nextID   int64

	// failInsertItems makes InsertLineItems fail, to exercise rollback.
	failInsertItems error
}

func newMemStore() *memStore {
	return &memStore{
		cafes: map[int64]domain.Cafe{
			1: {ID: 1, Name: "Central", Active: true},
			2: {ID: 2, Name: "Harbour", Active: true},
			3: {ID: 3, Name: "Closed", Active: false},
		},
		tables: map[int64]domain.Table{
			1: {ID: 1, CafeID: 1, SeatsCount: 2, Active: true},
			2: {ID: 2, CafeID: 1, SeatsCount: 4, Active: true},
			3: {ID: 3, CafeID: 2, SeatsCount: 4, Active: true},
			4: {ID: 4, CafeID: 1, SeatsCount: 6, Active: false},
		},
		slots: map[int64]domain.Slot{
			1: {ID: 1, CafeID: 1, StartTime: "12:00", EndTime: "13:00", Active: true},
			3: {ID: 3, CafeID: 1, StartTime: "19:00", EndTime: "20:00", Active: true},
			4: {ID: 4, CafeID: 2, StartTime: "12:00", EndTime: "13:00", Active: true},
		},
		dishes: map[int64]domain.Dish{
			5: {ID: 5, Name: "Soup", PriceCents: 999, Active: true},
			6: {ID: 6, Name: "Pie", PriceCents: 450, Active: true},
			7: {ID: 7, Name: "Retired", PriceCents: 100, Active: false},
		},
		bookings: map[int64]domain.Booking{},
		items:    map[int64][]domain.LineItem{},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := maps.Clone(s.bookings)
	items := maps.Clone(s.items)
	nextID := s.nextID

	if err := fn(&memTx{s: s}); err != nil {
		s.bookings, s.items, s.nextID = bookings, items, nextID
		return err
	}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *memStore) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, id := range slices.Sorted(maps.Keys(s.bookings)) {
		b := s.bookings[id]
		switch {
		case f.UserID != nil && b.UserID != *f.UserID,
			f.CafeID != nil && b.CafeID != *f.CafeID,
			f.CafeScope != nil && !slices.Contains(f.CafeScope, b.CafeID) && (f.ScopeOwner == nil || b.UserID != *f.ScopeOwner),
			f.Date != nil && !b.Date.Equal(domain.DateOf(*f.Date)),
			f.Status != nil && b.Status != *f.Status:
			continue
		}
		b.LineItems = slices.Clone(s.items[id])
		out = append(out, b)
	}
	if f.Offset >= len(out) {
		return []domain.Booking{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) MarkRemindersDue(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]domain.Booking, 0)
	for _, id := range slices.Sorted(maps.Keys(s.bookings)) {
		b := s.bookings[id]
		if b.Date.Equal(domain.DateOf(date)) && b.Status == domain.BookingStatusConfirmed && b.Active && !b.ReminderSent {
			b.ReminderSent = true
			s.bookings[id] = b
			due = append(due, b)
		}
	}
	return due, nil
}

func (s *memStore) get(id int64) (*domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "booking %d", id)
	}
	b.LineItems = slices.Clone(s.items[id])
	return &b, nil
}

func (s *memStore) holders(key domain.BookingKey, excludeID int64) int {
	n := 0
	for id, b := range s.bookings {
		if id != excludeID && b.HoldsSlot() && b.TableID == key.TableID && b.SlotID == key.SlotID && b.Date.Equal(key.Date) {
			n++
		}
	}
	return n
}

// put stores b, rejecting it the way the unique index would.
func (s *memStore) put(b *domain.Booking) error {
	if b.HoldsSlot() && s.holders(b.Key(), b.ID) > 0 {
		return domain.Errorf(domain.ErrConflict, "table is already booked for this slot and date")
	}
	stored := *b
	stored.LineItems = nil
	s.bookings[b.ID] = stored
	return nil
}

// activeHolders counts bookings currently holding key; used by assertions.
func (s *memStore) activeHolders(key domain.BookingKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holders(key, 0)
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) setDishPrice(id, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dishes[id]
	d.PriceCents = cents
	s.dishes[id] = d
}

func (s *memStore) setBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID > s.nextID {
		s.nextID = b.ID
	}
	s.bookings[b.ID] = b
}

type memTx struct {
	s *memStore
}

func (t *memTx) GetCafe(ctx context.Context, id int64) (*domain.Cafe, error) {
	c, ok := t.s.cafes[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "cafe %d", id)
	}
	return &c, nil
}

func (t *memTx) GetTable(ctx context.Context, id int64) (*domain.Table, error) {
	tb, ok := t.s.tables[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "table %d", id)
	}
	return &tb, nil
}

func (t *memTx) GetSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	sl, ok := t.s.slots[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "slot %d", id)
	}
	return &sl, nil
}

func (t *memTx) GetDish(ctx context.Context, id int64) (*domain.Dish, error) {
	d, ok := t.s.dishes[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "dish %d", id)
	}
	return &d, nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return t.s.get(id)
}

func (t *memTx) HasConflict(ctx context.Context, key domain.BookingKey, excludeID int64) (bool, error) {
	return t.s.holders(key, excludeID) > 0, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	t.s.nextID++
	b.ID = t.s.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	return t.s.put(b)
}

func (t *memTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	if _, ok := t.s.bookings[b.ID]; !ok {
		return domain.Errorf(domain.ErrNotFound, "booking %d", b.ID)
	}
	b.UpdatedAt = time.Now()
	return t.s.put(b)
}

func (t *memTx) DeleteLineItems(ctx context.Context, bookingID int64) error {
	delete(t.s.items, bookingID)
	return nil
}

func (t *memTx) InsertLineItems(ctx context.Context, items []domain.LineItem) error {
	if t.s.failInsertItems != nil {
		return t.s.failInsertItems
	}
	for i := range items {
		if items[i].BookingID == 0 {
			return errors.New("line item without booking")
		}
		t.s.nextID++
		items[i].ID = t.s.nextID
		t.s.items[items[i].BookingID] = append(t.s.items[items[i].BookingID], items[i])
	}
	return nil
}

var _ repository.BookingRepository = (*memStore)(nil)
var _ repository.BookingTx = (*memTx)(nil)
