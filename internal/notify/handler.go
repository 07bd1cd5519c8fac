package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/sirupsen/logrus"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Directory resolves who hears about an event.
type Directory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	NotificationRecipients(ctx context.Context, cafeID int64) ([]domain.User, error)
}

var subjects = map[domain.EventKind]string{
	domain.EventCreated:   "New booking #%d",
	domain.EventUpdated:   "Booking #%d updated",
	domain.EventCancelled: "Booking #%d cancelled",
	domain.EventReminder:  "Reminder: booking #%d tomorrow",
}

var bodyTemplate = template.Must(template.New("booking").Parse(`Hello {{.Recipient}},

Booking #{{.Event.BookingID}} is now {{.Event.Status}}.
Cafe: {{.Event.CafeID}}
Table: {{.Event.TableID}}
Slot: {{.Event.SlotID}}
Date: {{.Event.Date}}
`))

type Handler struct {
	users  Directory
	mailer Mailer
}

func NewHandler(users Directory, mailer Mailer) *Handler {
	return &Handler{users: users, mailer: mailer}
}

// Handle decodes one event and e-mails its recipients. Delivery failures for a
// single recipient do not stop delivery to the others.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	var event domain.BookingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	subject, ok := subjects[event.Kind]
	if !ok {
		return fmt.Errorf("unknown booking event kind %q", event.Kind)
	}

	recipients, err := h.recipients(ctx, event)
	if err != nil {
		return fmt.Errorf("resolve recipients for booking %d: %w", event.BookingID, err)
	}

	entry := logger.Log.WithFields(logrus.Fields{"booking_id": event.BookingID, "kind": event.Kind})
	sent := 0
	for _, u := range recipients {
		if !u.Active || u.Email == "" {
			continue
		}
		var buf bytes.Buffer
		if err := bodyTemplate.Execute(&buf, struct {
			Recipient string
			Event     domain.BookingEvent
		}{u.Username, event}); err != nil {
			return err
		}
		if err := h.mailer.Send(ctx, u.Email, fmt.Sprintf(subject, event.BookingID), buf.String()); err != nil {
			entry.WithError(err).WithField("user_id", u.ID).Warn("failed to send booking notification")
			continue
		}
		sent++
	}
	entry.WithField("sent", sent).Info("booking notification handled")
	return nil
}

func (h *Handler) recipients(ctx context.Context, event domain.BookingEvent) ([]domain.User, error) {
	if event.Kind == domain.EventReminder {
		u, err := h.users.GetUser(ctx, event.UserID)
		if err != nil {
			return nil, err
		}
		return []domain.User{*u}, nil
	}
	return h.users.NotificationRecipients(ctx, event.CafeID)
}
