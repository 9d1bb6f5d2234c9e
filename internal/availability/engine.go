package availability

import (
	"context"
	"errors"
	"time"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/repository"
)

// Engine answers "is this equipment free for [start,end]?" against the
// current catalog flag and the set of blocking bookings. It is a pure read:
// it never locks or mutates anything. The write-side re-check during
// reservation lives in BookingRepository.Reserve, which serializes on the
// equipment row.
type Engine struct {
	equipment repository.EquipmentRepository
	bookings  repository.BookingRepository
}

func NewEngine(equipmentRepo repository.EquipmentRepository, bookingRepo repository.BookingRepository) *Engine {
	return &Engine{equipment: equipmentRepo, bookings: bookingRepo}
}

// IsAvailable returns (false, nil) for unknown equipment and malformed
// ranges; callers who need to distinguish "not found" from "booked" do a
// separate catalog lookup. An error is returned only on storage failure.
func (e *Engine) IsAvailable(ctx context.Context, equipmentID uint, start, end time.Time) (bool, error) {
	if start.IsZero() || end.IsZero() {
		return false, nil
	}
	if bookings.DayStart(start).After(bookings.DayStart(end)) {
		return false, nil
	}

	eq, err := e.equipment.Get(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, bookings.ErrEquipmentNotFound) {
			return false, nil
		}
		return false, err
	}
	if !eq.Availability {
		return false, nil
	}

	overlap, err := e.bookings.HasBlockingOverlap(ctx, equipmentID, start, end)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}
