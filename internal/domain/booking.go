package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// ParseBookingStatus accepts only the four known statuses.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return st, nil
	}
	return "", Errorf(ErrInvalidArgument, "unknown booking status %q", s)
}

// Terminal reports whether no further status or schedule change is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled || next == BookingStatusCompleted
	}
	return false
}

type Booking struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"user_id"`
	CafeID       int64         `json:"cafe_id"`
	TableID      int64         `json:"table_id"`
	SlotID       int64         `json:"slot_id"`
	Date         time.Time     `json:"date"`
	Status       BookingStatus `json:"status"`
	Note         *string       `json:"note,omitempty"`
	ReminderSent bool          `json:"reminder_sent"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	LineItems []LineItem `json:"dishes"`
}

// HoldsSlot reports whether the booking occupies its (table, slot, date) key.
func (b *Booking) HoldsSlot() bool {
	return b.Active && b.Status != BookingStatusCancelled
}

// TotalCents sums price snapshots times quantities.
func (b *Booking) TotalCents() int64 {
	var total int64
	for _, li := range b.LineItems {
		total += li.PriceCents * int64(li.Quantity)
	}
	return total
}

// LineItem is a dish ordered with a booking. PriceCents is the dish price at the
// moment the item was written and is never re-read from the dish afterwards.
type LineItem struct {
	ID         int64  `json:"id"`
	BookingID  int64  `json:"booking_id"`
	DishID     int64  `json:"dish_id"`
	DishName   string `json:"dish_name,omitempty"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// DishOrder is a requested line item before price resolution.
type DishOrder struct {
	DishID   int64 `json:"dish_id" validate:"gt=0"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// BookingKey identifies the slot a booking holds on a calendar date.
type BookingKey struct {
	TableID int64
	SlotID  int64
	Date    time.Time
}

func (b *Booking) Key() BookingKey {
	return BookingKey{TableID: b.TableID, SlotID: b.SlotID, Date: b.Date}
}
