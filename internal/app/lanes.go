package app

import (
	"context"
	"sort"
	"time"

	"dormdesk/internal/domain"
)

// LaneAssignment places one booking on a timeline row. Bookings sharing a
// lane never overlap; bookings on the same room type in different units
// legitimately render in parallel lanes.
type LaneAssignment struct {
	Booking domain.Booking `json:"booking"`
	Lane    int            `json:"lane"`
}

type Lanes struct {
	ledger domain.BookingRepository
}

func NewLanes(ledger domain.BookingRepository) *Lanes {
	return &Lanes{ledger: ledger}
}

func (l *Lanes) ListLanes(ctx context.Context, roomTypeID string, viewStart, viewEnd time.Time) ([]LaneAssignment, error) {
	viewStart, viewEnd = domain.Day(viewStart), domain.Day(viewEnd)
	if !viewStart.Before(viewEnd) {
		return nil, domain.Invalid("to", "must be after from")
	}
	bookings, err := l.ledger.ListActive(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	return AssignLanes(bookings, viewStart, viewEnd), nil
}

// AssignLanes greedily packs bookings into the minimum number of
// non-overlapping rows (interval partitioning): sort by check-in, reuse the
// first lane that ended on or before the booking's check-in, else open a
// new one. Display-only; the ledger is never consulted for conflicts here.
func AssignLanes(bookings []domain.Booking, viewStart, viewEnd time.Time) []LaneAssignment {
	visible := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status.Active() && b.Overlaps(viewStart, viewEnd) {
			visible = append(visible, b)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].CheckIn.Equal(visible[j].CheckIn) {
			return visible[i].ID < visible[j].ID
		}
		return visible[i].CheckIn.Before(visible[j].CheckIn)
	})

	var laneEnds []time.Time
	out := make([]LaneAssignment, 0, len(visible))
	for _, b := range visible {
		lane := -1
		for i, end := range laneEnds {
			if !end.After(b.CheckIn) {
				lane = i
				break
			}
		}
		if lane == -1 {
			laneEnds = append(laneEnds, b.CheckOut)
			lane = len(laneEnds) - 1
		} else {
			laneEnds[lane] = b.CheckOut
		}
		out = append(out, LaneAssignment{Booking: b, Lane: lane})
	}
	return out
}
