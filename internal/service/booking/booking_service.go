package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/Domenick1991/cafebooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, req domain.Requester, input CreateBookingInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, req domain.Requester, id int64, input UpdateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, req domain.Requester, id int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, req domain.Requester, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, req domain.Requester, input ListBookingsInput) ([]domain.Booking, error)
	SendReminders(ctx context.Context) ([]domain.Booking, error)
}

// Emitter hands booking events to the notification transport. It must not block
// the caller on delivery and reports its own failures.
type Emitter interface {
	Emit(ctx context.Context, event domain.BookingEvent)
}

type AvailabilityCache interface {
	InvalidateAvailability(ctx context.Context, cafeID int64, date time.Time) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	emitter      Emitter
	cache        AvailabilityCache
	now          func() time.Time
	location     *time.Location
	defaultLimit int
	maxLimit     int
}

type BookingServiceOption func(*BookingService)

func WithAvailabilityCache(cache AvailabilityCache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithLocation sets the timezone in which "today" is evaluated.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		s.location = loc
	}
}

func WithListLimits(defaultLimit, maxLimit int) BookingServiceOption {
	return func(s *BookingService) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

func NewBookingService(bookings repository.BookingRepository, emitter Emitter, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		emitter:      emitter,
		now:          time.Now,
		location:     time.UTC,
		defaultLimit: 100,
		maxLimit:     500,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, req domain.Requester, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}
	if domain.IsPast(date, s.today()) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "booking date %s is in the past", input.Date)
	}

	var created *domain.Booking
	err = s.bookings.InTx(ctx, func(tx repository.BookingTx) error {
		if err := checkPlacement(ctx, tx, input.CafeID, input.TableID, input.SlotID); err != nil {
			return err
		}
		b := &domain.Booking{
			UserID:  req.UserID,
			CafeID:  input.CafeID,
			TableID: input.TableID,
			SlotID:  input.SlotID,
			Date:    date,
			Status:  domain.BookingStatusPending,
			Note:    input.Note,
			Active:  true,
		}
		if err := ensureSlotFree(ctx, tx, b.Key(), 0); err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		items, err := replaceLineItems(ctx, tx, b.ID, input.Dishes)
		if err != nil {
			return err
		}
		b.LineItems = items
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, domain.EventCreated, created, nil)
	return created, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, req domain.Requester, id int64, input UpdateBookingInput) (*domain.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		before  domain.Booking
		updated *domain.Booking
	)
	err := s.bookings.InTx(ctx, func(tx repository.BookingTx) error {
		current, err := s.loadMutable(ctx, tx, req, id)
		if err != nil {
			return err
		}
		before = *current

		next, err := s.applyPatch(req, current, input)
		if err != nil {
			return err
		}
		if !req.CanAccess(next) {
			return domain.Errorf(domain.ErrForbidden, "cafe %d is not managed by user %d", next.CafeID, req.UserID)
		}

		placementChanged := next.CafeID != before.CafeID || next.TableID != before.TableID || next.SlotID != before.SlotID
		if placementChanged {
			if err := checkPlacement(ctx, tx, next.CafeID, next.TableID, next.SlotID); err != nil {
				return err
			}
		}
		if (placementChanged || !next.Date.Equal(before.Date)) && next.HoldsSlot() {
			if err := ensureSlotFree(ctx, tx, next.Key(), next.ID); err != nil {
				return err
			}
		}

		if err := tx.UpdateBooking(ctx, next); err != nil {
			return err
		}
		if input.Dishes != nil {
			items, err := replaceLineItems(ctx, tx, next.ID, input.Dishes)
			if err != nil {
				return err
			}
			next.LineItems = items
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, domain.EventUpdated, updated, &before)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, req domain.Requester, id int64) (*domain.Booking, error) {
	var cancelled *domain.Booking
	err := s.bookings.InTx(ctx, func(tx repository.BookingTx) error {
		current, err := s.loadMutable(ctx, tx, req, id)
		if err != nil {
			return err
		}
		current.Status = domain.BookingStatusCancelled
		if err := tx.UpdateBooking(ctx, current); err != nil {
			return err
		}
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, domain.EventCancelled, cancelled, nil)
	return cancelled, nil
}

func (s *BookingService) GetBooking(ctx context.Context, req domain.Requester, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.CanAccess(b) {
		return nil, domain.Errorf(domain.ErrForbidden, "booking %d", id)
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, req domain.Requester, input ListBookingsInput) ([]domain.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	filter := repository.BookingFilter{
		UserID: input.UserID,
		CafeID: input.CafeID,
		Offset: input.Offset,
		Limit:  input.Limit,
	}
	if input.Date != "" {
		date, err := domain.ParseDate(input.Date)
		if err != nil {
			return nil, err
		}
		filter.Date = &date
	}
	if input.Status != "" {
		status, err := domain.ParseBookingStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if filter.Limit == 0 {
		filter.Limit = s.defaultLimit
	}
	filter.Limit = min(filter.Limit, s.maxLimit)

	switch req.Role {
	case domain.RoleAdmin:
	case domain.RoleManager:
		filter.CafeScope = append(make([]int64, 0, len(req.ManagedCafeIDs)), req.ManagedCafeIDs...)
		userID := req.UserID
		filter.ScopeOwner = &userID
	default:
		userID := req.UserID
		filter.UserID = &userID
	}

	return s.bookings.List(ctx, filter)
}

// SendReminders flags tomorrow's confirmed bookings as reminded and emits one
// reminder event for each booking it flagged. Rows are flagged before the events
// go out, so a failed publish is logged by the emitter and never retried.
func (s *BookingService) SendReminders(ctx context.Context) ([]domain.Booking, error) {
	tomorrow := s.today().AddDate(0, 0, 1)
	due, err := s.bookings.MarkRemindersDue(ctx, tomorrow)
	if err != nil {
		return nil, err
	}
	for i := range due {
		s.emitter.Emit(ctx, domain.NewBookingEvent(domain.EventReminder, &due[i], s.now()))
	}
	logger.Log.WithFields(logrus.Fields{
		"date":  tomorrow.Format(domain.DateLayout),
		"count": len(due),
	}).Info("booking reminders sent")
	return due, nil
}

// loadMutable locks the booking and checks that req may change it and that it is
// still open for changes.
func (s *BookingService) loadMutable(ctx context.Context, tx repository.BookingTx, req domain.Requester, id int64) (*domain.Booking, error) {
	current, err := tx.GetBookingForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.CanAccess(current) {
		return nil, domain.Errorf(domain.ErrForbidden, "booking %d", id)
	}
	if current.Status.Terminal() {
		return nil, domain.Errorf(domain.ErrInvalidState, "booking %d is %s", id, current.Status)
	}
	if domain.IsPast(current.Date, s.today()) {
		return nil, domain.Errorf(domain.ErrInvalidState, "booking %d date %s has passed", id, current.Date.Format(domain.DateLayout))
	}
	return current, nil
}

func (s *BookingService) applyPatch(req domain.Requester, current *domain.Booking, input UpdateBookingInput) (*domain.Booking, error) {
	next := *current
	if input.CafeID != nil {
		next.CafeID = *input.CafeID
	}
	if input.TableID != nil {
		next.TableID = *input.TableID
	}
	if input.SlotID != nil {
		next.SlotID = *input.SlotID
	}
	if input.Note != nil {
		next.Note = input.Note
	}
	if input.Date != nil {
		date, err := domain.ParseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		if domain.IsPast(date, s.today()) {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "booking date %s is in the past", *input.Date)
		}
		next.Date = date
	}
	if input.Status != nil {
		status, err := domain.ParseBookingStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		if status != current.Status {
			if !current.Status.CanTransition(status) {
				return nil, domain.Errorf(domain.ErrInvalidState, "booking %d cannot move from %s to %s", current.ID, current.Status, status)
			}
			if status != domain.BookingStatusCancelled && !req.Role.IsStaff() {
				return nil, domain.Errorf(domain.ErrForbidden, "only staff may set status %s", status)
			}
			next.Status = status
		}
	}
	return &next, nil
}

func (s *BookingService) today() time.Time {
	return domain.DateOf(s.now().In(s.location))
}

// afterCommit runs the post-commit side effects of a mutation. Neither of them
// can fail the operation. before is the booking as it was prior to an update.
func (s *BookingService) afterCommit(ctx context.Context, kind domain.EventKind, b *domain.Booking, before *domain.Booking) {
	logger.Log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"user_id":    b.UserID,
		"action":     string(kind),
	}).Info("booking " + string(kind))

	s.emitter.Emit(ctx, domain.NewBookingEvent(kind, b, s.now()))

	if s.cache == nil {
		return
	}
	s.invalidate(ctx, b.CafeID, b.Date)
	if before != nil && (before.CafeID != b.CafeID || !before.Date.Equal(b.Date)) {
		s.invalidate(ctx, before.CafeID, before.Date)
	}
}

func (s *BookingService) invalidate(ctx context.Context, cafeID int64, date time.Time) {
	if err := s.cache.InvalidateAvailability(ctx, cafeID, date); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"cafe_id": cafeID,
			"date":    date.Format(domain.DateLayout),
		}).Warn("failed to invalidate availability cache")
	}
}

var _ BookingUseCase = (*BookingService)(nil)
