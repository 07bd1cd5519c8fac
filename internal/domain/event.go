package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventCancelled EventKind = "cancelled"
	EventReminder  EventKind = "reminder"
)

// BookingEvent is the message handed to the notification transport after commit.
type BookingEvent struct {
	ID         string        `json:"id"`
	Kind       EventKind     `json:"kind"`
	BookingID  int64         `json:"booking_id"`
	UserID     int64         `json:"user_id"`
	CafeID     int64         `json:"cafe_id"`
	TableID    int64         `json:"table_id"`
	SlotID     int64         `json:"slot_id"`
	Date       string        `json:"date"`
	Status     BookingStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewBookingEvent(kind EventKind, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		CafeID:     b.CafeID,
		TableID:    b.TableID,
		SlotID:     b.SlotID,
		Date:       b.Date.Format(DateLayout),
		Status:     b.Status,
		OccurredAt: at.UTC(),
	}
}

// MessageID identifies this event on the wire; it differs for every event of a booking.
func (e BookingEvent) MessageID() string {
	return e.ID
}
