package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/repository"
)

// replaceLineItems drops every line item of the booking and writes one item per
// order, priced at the dish's current price. All dishes are resolved before
// anything is deleted.
func replaceLineItems(ctx context.Context, tx repository.BookingTx, bookingID int64, orders []domain.DishOrder) ([]domain.LineItem, error) {
	items, err := resolveDishes(ctx, tx, orders)
	if err != nil {
		return nil, err
	}

	if err := tx.DeleteLineItems(ctx, bookingID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	for i := range items {
		items[i].BookingID = bookingID
	}
	if err := tx.InsertLineItems(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func resolveDishes(ctx context.Context, tx repository.BookingTx, orders []domain.DishOrder) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(orders))
	var missing []string
	for _, o := range orders {
		dish, err := tx.GetDish(ctx, o.DishID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !dish.Active) {
			missing = append(missing, strconv.FormatInt(o.DishID, 10))
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, domain.LineItem{
			DishID:     dish.ID,
			DishName:   dish.Name,
			Quantity:   o.Quantity,
			PriceCents: dish.PriceCents,
		})
	}
	if len(missing) > 0 {
		return nil, domain.Errorf(domain.ErrNotFound, "dish %s", strings.Join(missing, ", "))
	}
	return items, nil
}
