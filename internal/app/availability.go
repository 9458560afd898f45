package app

import (
	"context"
	"time"

	"dormdesk/internal/domain"
)

// Availability answers "can N units of this room type be booked for
// [checkIn, checkOut)" against the live ledger. Pure read: conflict
// prevention at write time happens inside the booking transactions, which
// reuse the same fits/unitFree predicates.
type Availability struct {
	rooms  domain.RoomRepository
	ledger domain.BookingRepository
}

func NewAvailability(rooms domain.RoomRepository, ledger domain.BookingRepository) *Availability {
	return &Availability{rooms: rooms, ledger: ledger}
}

func (a *Availability) IsAvailable(ctx context.Context, location, roomTypeID string, checkIn, checkOut time.Time, units int) (bool, error) {
	checkIn, checkOut = domain.Day(checkIn), domain.Day(checkOut)
	if !checkIn.Before(checkOut) {
		return false, domain.Invalid("check_out", "must be after check_in")
	}
	if units <= 0 {
		units = 1
	}
	rt, err := a.rooms.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return false, err
	}
	if location == "" {
		location = rt.Location
	} else if location != rt.Location {
		return false, domain.Invalid("location", "does not match room type")
	}
	overlapping, err := a.ledger.ListOverlapping(ctx, location, roomTypeID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return fits(rt, overlapping, units), nil
}

// fits decides whether `units` more bookings fit next to the given active
// overlapping bookings. Whole rooms (private/suite) admit zero overlap;
// dorms compare occupied beds against capacity. Pending and maintenance
// both withhold a bed.
func fits(rt domain.RoomType, overlapping []domain.Booking, units int) bool {
	if rt.Category.WholeRoom() {
		return len(overlapping) == 0
	}
	occupied := 0
	for _, b := range overlapping {
		if b.Status.Occupies() {
			occupied++
		}
	}
	return rt.CapacityUnits-occupied >= units
}

// unitFree reports whether a specific unit can take one more booking over
// the interval covered by `overlapping`, ignoring the booking identified by
// excludeID (used by extend/reassign, which must not conflict with
// themselves). A nil unitID on a dorm falls back to the capacity check.
func unitFree(rt domain.RoomType, overlapping []domain.Booking, unitID *int, excludeID string) bool {
	rest := overlapping[:0:0]
	for _, b := range overlapping {
		if b.ID != excludeID {
			rest = append(rest, b)
		}
	}
	if rt.Category.WholeRoom() || unitID == nil {
		return fits(rt, rest, 1)
	}
	for _, b := range rest {
		if b.Status.Occupies() && b.UnitID != nil && *b.UnitID == *unitID {
			return false
		}
	}
	return true
}
