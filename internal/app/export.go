package app

import (
	"context"
	"time"

	ics "github.com/arran4/golang-ical"

	"dormdesk/internal/domain"
)

// Export renders the active bookings of one room type as a read-only
// iCalendar feed, resolved by the room's opaque export token. No
// reconciliation in this direction.
type Export struct {
	rooms  domain.RoomRepository
	ledger domain.BookingRepository
	cache  domain.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewExport(rooms domain.RoomRepository, ledger domain.BookingRepository, cache domain.Cache, ttl time.Duration) *Export {
	return &Export{rooms: rooms, ledger: ledger, cache: cache, ttl: ttl, now: time.Now}
}

func (e *Export) Calendar(ctx context.Context, token string) (string, error) {
	key := "ical:" + token
	var cached string
	if ok, _ := e.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	rt, err := e.rooms.GetRoomTypeByToken(ctx, token)
	if err != nil {
		return "", err
	}
	bookings, err := e.ledger.ListActive(ctx, rt.ID)
	if err != nil {
		return "", err
	}
	out := BuildCalendar(rt, bookings, e.now().UTC())
	_ = e.cache.Set(ctx, key, out, int(e.ttl.Seconds()))
	return out, nil
}

// BuildCalendar serializes active bookings as all-day VEVENTs. The checkout
// day is the DTEND, exclusive, matching the half-open booking interval.
func BuildCalendar(rt domain.RoomType, bookings []domain.Booking, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dormdesk//calendar export//EN")
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		ev := cal.AddEvent(b.ID + "@dormdesk")
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(b.CheckIn)
		ev.SetAllDayEndAt(b.CheckOut)
		summary := b.GuestName
		if b.Status == domain.StatusMaintenance {
			summary = "Maintenance block"
		}
		ev.SetSummary(summary)
		ev.SetLocation(rt.Location)
	}
	return cal.Serialize()
}
