package availability

import (
	"context"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/logger"
	"github.com/Domenick1991/cafebooking/internal/repository"
)

type AvailabilityUseCase interface {
	Availability(ctx context.Context, cafeID int64, date string) ([]domain.SlotAvailability, error)
}

// Cache stores computed availability per café and date. A miss is reported as
// a nil slice with a nil error.
type Cache interface {
	GetAvailability(ctx context.Context, cafeID int64, date time.Time) ([]domain.SlotAvailability, error)
	SetAvailability(ctx context.Context, cafeID int64, date time.Time, slots []domain.SlotAvailability) error
}

type AvailabilityService struct {
	cafes    repository.CafeRepository
	cache    Cache
	now      func() time.Time
	location *time.Location
}

func NewAvailabilityService(cafes repository.CafeRepository, cache Cache, location *time.Location) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityService{cafes: cafes, cache: cache, now: time.Now, location: location}
}

// Availability lists, for every active slot of the café, the active tables that
// no booking holds on date.
func (s *AvailabilityService) Availability(ctx context.Context, cafeID int64, date string) ([]domain.SlotAvailability, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if domain.IsPast(day, s.now().In(s.location)) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "date %s is in the past", date)
	}

	if s.cache != nil {
		if cached, err := s.cache.GetAvailability(ctx, cafeID, day); err == nil && cached != nil {
			return cached, nil
		}
	}

	cafe, err := s.cafes.GetCafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	if !cafe.Active {
		return nil, domain.Errorf(domain.ErrNotFound, "cafe %d", cafeID)
	}

	tables, err := s.cafes.ListTables(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	slots, err := s.cafes.ListSlots(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.cafes.OccupiedKeys(ctx, cafeID, day)
	if err != nil {
		return nil, err
	}

	taken := make(map[[2]int64]struct{}, len(occupied))
	for _, k := range occupied {
		taken[[2]int64{k.TableID, k.SlotID}] = struct{}{}
	}

	result := make([]domain.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		free := make([]domain.Table, 0, len(tables))
		for _, table := range tables {
			if _, ok := taken[[2]int64{table.ID, slot.ID}]; !ok {
				free = append(free, table)
			}
		}
		result = append(result, domain.SlotAvailability{Slot: slot, Date: day, FreeTables: free})
	}

	// A read racing a booking commit may cache a stale view until the TTL expires.
	// Creation still rejects a taken slot with a conflict.
	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, cafeID, day, result); err != nil {
			logger.Log.WithError(err).WithField("cafe_id", cafeID).Warn("failed to cache availability")
		}
	}
	return result, nil
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
