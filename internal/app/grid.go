package app

import (
	"context"
	"time"

	"dormdesk/internal/domain"
)

// Grid builds the per-day occupancy projection for one room type.
type Grid struct {
	rooms  domain.RoomRepository
	ledger domain.BookingRepository
}

func NewGrid(rooms domain.RoomRepository, ledger domain.BookingRepository) *Grid {
	return &Grid{rooms: rooms, ledger: ledger}
}

func (g *Grid) GetOccupancyGrid(ctx context.Context, roomTypeID string, asOf time.Time) ([]domain.Unit, error) {
	rt, err := g.rooms.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	day := domain.Day(asOf)
	bookings, err := g.ledger.ListOnDay(ctx, roomTypeID, day)
	if err != nil {
		return nil, err
	}
	return BuildOccupancyGrid(rt, bookings, day), nil
}

// BuildOccupancyGrid lays the day's bookings onto capacityUnits slots.
// Bookings carrying an explicit in-range unit id land on that slot first;
// the rest fill the remaining empty slots in insertion order, so the same
// inputs always produce the same grid. Strictly a projection over the
// ledger; nothing is written back.
func BuildOccupancyGrid(rt domain.RoomType, bookings []domain.Booking, asOf time.Time) []domain.Unit {
	units := make([]domain.Unit, rt.CapacityUnits)
	for i := range units {
		id := i + 1
		units[i] = domain.Unit{
			ID:           id,
			Label:        rt.UnitLabel(id),
			Status:       domain.UnitAvailable,
			Housekeeping: rt.UnitHousekeeping(id),
		}
	}

	var unassigned []domain.Booking
	for i := range bookings {
		b := bookings[i]
		if !b.Status.Active() || !b.OnDay(asOf) {
			continue
		}
		if b.UnitID != nil && rt.HasUnit(*b.UnitID) {
			slot := &units[*b.UnitID-1]
			if slot.Booking == nil {
				place(slot, b, asOf)
				continue
			}
			// checkout-day handover on the same unit: the guest staying the
			// coming night owns the bed, the departing one moves aside
			if slot.Booking.CheckOut.Equal(asOf) && b.CheckOut.After(asOf) {
				displaced := *slot.Booking
				place(slot, b, asOf)
				unassigned = append(unassigned, displaced)
				continue
			}
			unassigned = append(unassigned, b)
			continue
		}
		// missing or out-of-range unit id: treat as unassigned
		unassigned = append(unassigned, b)
	}
	for _, b := range unassigned {
		for i := range units {
			if units[i].Booking == nil {
				place(&units[i], b, asOf)
				break
			}
		}
	}
	return units
}

func place(u *domain.Unit, b domain.Booking, asOf time.Time) {
	c := b
	u.Booking = &c
	u.Status = displayStatus(b, asOf)
}

func displayStatus(b domain.Booking, asOf time.Time) domain.UnitStatus {
	switch {
	case b.Status == domain.StatusMaintenance:
		return domain.UnitMaintenance
	case b.Status == domain.StatusPending:
		return domain.UnitPending
	case b.PaymentStatus == "verifying":
		return domain.UnitPaymentCheck
	case b.CheckIn.Equal(asOf):
		return domain.UnitCheckinToday
	case b.CheckOut.Equal(asOf):
		return domain.UnitCheckoutToday
	}
	return domain.UnitOccupied
}
