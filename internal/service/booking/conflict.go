package booking

import (
	"context"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/Domenick1991/cafebooking/internal/repository"
)

// ensureSlotFree must run inside the transaction that writes the booking. The
// booking identified by excludeID does not count against itself.
func ensureSlotFree(ctx context.Context, tx repository.BookingTx, key domain.BookingKey, excludeID int64) error {
	taken, err := tx.HasConflict(ctx, key, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.Errorf(domain.ErrConflict, "table %d is already booked for slot %d on %s",
			key.TableID, key.SlotID, key.Date.Format(domain.DateLayout))
	}
	return nil
}

// checkPlacement verifies that the café, table and slot exist, are active and
// that the table and slot belong to the café.
func checkPlacement(ctx context.Context, tx repository.BookingTx, cafeID, tableID, slotID int64) error {
	cafe, err := tx.GetCafe(ctx, cafeID)
	if err != nil {
		return err
	}
	if !cafe.Active {
		return domain.Errorf(domain.ErrNotFound, "cafe %d", cafeID)
	}

	table, err := tx.GetTable(ctx, tableID)
	if err != nil {
		return err
	}
	if !table.Active {
		return domain.Errorf(domain.ErrNotFound, "table %d", tableID)
	}
	if table.CafeID != cafeID {
		return domain.Errorf(domain.ErrInvalidArgument, "table %d does not belong to cafe %d", tableID, cafeID)
	}

	slot, err := tx.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if !slot.Active {
		return domain.Errorf(domain.ErrNotFound, "slot %d", slotID)
	}
	if slot.CafeID != cafeID {
		return domain.Errorf(domain.ErrInvalidArgument, "slot %d does not belong to cafe %d", slotID, cafeID)
	}
	return nil
}
