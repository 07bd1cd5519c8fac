package booking

import (
	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/go-playground/validator/v10"
)

type CreateBookingInput struct {
	CafeID  int64              `json:"cafe_id" validate:"gt=0"`
	TableID int64              `json:"table_id" validate:"gt=0"`
	SlotID  int64              `json:"slot_id" validate:"gt=0"`
	Date    string             `json:"date" validate:"required"`
	Note    *string            `json:"note,omitempty" validate:"omitempty,max=1000"`
	Dishes  []domain.DishOrder `json:"dishes" validate:"dive"`
}

// UpdateBookingInput is a partial update. Nil fields are left untouched. A non-nil
// Dishes slice, even an empty one, replaces every line item of the booking.
type UpdateBookingInput struct {
	CafeID  *int64             `json:"cafe_id,omitempty" validate:"omitempty,gt=0"`
	TableID *int64             `json:"table_id,omitempty" validate:"omitempty,gt=0"`
	SlotID  *int64             `json:"slot_id,omitempty" validate:"omitempty,gt=0"`
	Date    *string            `json:"date,omitempty"`
	Note    *string            `json:"note,omitempty" validate:"omitempty,max=1000"`
	Status  *string            `json:"status,omitempty"`
	Dishes  []domain.DishOrder `json:"dishes" validate:"dive"`
}

type ListBookingsInput struct {
	UserID *int64 `form:"user_id" validate:"omitempty,gt=0"`
	CafeID *int64 `form:"cafe_id" validate:"omitempty,gt=0"`
	Date   string `form:"date"`
	Status string `form:"status"`
	Offset int    `form:"offset" validate:"gte=0"`
	Limit  int    `form:"limit" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return domain.Errorf(domain.ErrInvalidArgument, "%v", err)
	}
	return nil
}
