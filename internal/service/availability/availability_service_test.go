package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCafeRepository struct {
	mock.Mock
}

func (m *MockCafeRepository) GetCafe(ctx context.Context, id int64) (*domain.Cafe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cafe), args.Error(1)
}

func (m *MockCafeRepository) ListTables(ctx context.Context, cafeID int64) ([]domain.Table, error) {
	args := m.Called(ctx, cafeID)
	return args.Get(0).([]domain.Table), args.Error(1)
}

func (m *MockCafeRepository) ListSlots(ctx context.Context, cafeID int64) ([]domain.Slot, error) {
	args := m.Called(ctx, cafeID)
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func (m *MockCafeRepository) OccupiedKeys(ctx context.Context, cafeID int64, date time.Time) ([]domain.BookingKey, error) {
	args := m.Called(ctx, cafeID, date)
	return args.Get(0).([]domain.BookingKey), args.Error(1)
}

func (m *MockCafeRepository) ManagedCafeIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCafeRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockCafeRepository) NotificationRecipients(ctx context.Context, cafeID int64) ([]domain.User, error) {
	args := m.Called(ctx, cafeID)
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetAvailability(ctx context.Context, cafeID int64, date time.Time) ([]domain.SlotAvailability, error) {
	args := m.Called(ctx, cafeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SlotAvailability), args.Error(1)
}

func (m *MockCache) SetAvailability(ctx context.Context, cafeID int64, date time.Time, slots []domain.SlotAvailability) error {
	args := m.Called(ctx, cafeID, date, slots)
	return args.Error(0)
}

var day = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestService(repo *MockCafeRepository, cache Cache) *AvailabilityService {
	s := NewAvailabilityService(repo, cache, time.UTC)
	s.now = func() time.Time { return time.Date(2029, 12, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestAvailabilityService_Availability(t *testing.T) {
	repo := &MockCafeRepository{}
	cache := &MockCache{}
	service := newTestService(repo, cache)
	ctx := context.Background()

	tables := []domain.Table{{ID: 1, CafeID: 1, SeatsCount: 2}, {ID: 2, CafeID: 1, SeatsCount: 4}}
	slots := []domain.Slot{
		{ID: 1, CafeID: 1, StartTime: "12:00", EndTime: "13:00"},
		{ID: 2, CafeID: 1, StartTime: "13:00", EndTime: "14:00"},
	}

	cache.On("GetAvailability", ctx, int64(1), day).Return(nil, nil).Once()
	repo.On("GetCafe", ctx, int64(1)).Return(&domain.Cafe{ID: 1, Active: true}, nil).Once()
	repo.On("ListTables", ctx, int64(1)).Return(tables, nil).Once()
	repo.On("ListSlots", ctx, int64(1)).Return(slots, nil).Once()
	repo.On("OccupiedKeys", ctx, int64(1), day).Return([]domain.BookingKey{{TableID: 2, SlotID: 1, Date: day}}, nil).Once()
	cache.On("SetAvailability", ctx, int64(1), day, mock.Anything).Return(errors.New("redis down")).Once()

	result, err := service.Availability(ctx, 1, "2030-01-01")

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "12:00", result[0].Slot.StartTime)
	assert.Equal(t, []domain.Table{tables[0]}, result[0].FreeTables)
	assert.Equal(t, tables, result[1].FreeTables)
	assert.Equal(t, day, result[1].Date)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestAvailabilityService_Availability_CacheHit(t *testing.T) {
	repo := &MockCafeRepository{}
	cache := &MockCache{}
	service := newTestService(repo, cache)
	ctx := context.Background()

	cached := []domain.SlotAvailability{{Slot: domain.Slot{ID: 1}, Date: day, FreeTables: []domain.Table{}}}
	cache.On("GetAvailability", ctx, int64(1), day).Return(cached, nil).Once()

	result, err := service.Availability(ctx, 1, "2030-01-01")

	require.NoError(t, err)
	assert.Equal(t, cached, result)
	repo.AssertNotCalled(t, "GetCafe", mock.Anything, mock.Anything)
}

func TestAvailabilityService_Availability_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		date    string
		cafe    *domain.Cafe
		cafeErr error
		wantErr error
	}{
		{name: "past date", date: "2029-12-14", wantErr: domain.ErrInvalidArgument},
		{name: "malformed date", date: "tomorrow", wantErr: domain.ErrInvalidArgument},
		{name: "missing cafe", date: "2030-01-01", cafeErr: domain.Errorf(domain.ErrNotFound, "cafe 1"), wantErr: domain.ErrNotFound},
		{name: "inactive cafe", date: "2030-01-01", cafe: &domain.Cafe{ID: 1, Active: false}, wantErr: domain.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &MockCafeRepository{}
			service := newTestService(repo, nil)
			ctx := context.Background()
			if tc.cafe != nil || tc.cafeErr != nil {
				if tc.cafe != nil {
					repo.On("GetCafe", ctx, int64(1)).Return(tc.cafe, nil).Once()
				} else {
					repo.On("GetCafe", ctx, int64(1)).Return(nil, tc.cafeErr).Once()
				}
			}

			result, err := service.Availability(ctx, 1, tc.date)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, result)
			repo.AssertExpectations(t)
		})
	}
}
