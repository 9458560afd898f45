package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dormdesk/internal/domain"
)

// ---- shared fakes ----

type fakeRooms struct {
	types []domain.RoomType
}

func (f *fakeRooms) GetRoomType(_ context.Context, id string) (domain.RoomType, error) {
	for _, rt := range f.types {
		if rt.ID == id {
			return rt, nil
		}
	}
	return domain.RoomType{}, domain.ErrNotFound
}

func (f *fakeRooms) GetRoomTypeByToken(_ context.Context, token string) (domain.RoomType, error) {
	for _, rt := range f.types {
		if rt.ExportToken != nil && *rt.ExportToken == token {
			return rt, nil
		}
	}
	return domain.RoomType{}, domain.ErrNotFound
}

func (f *fakeRooms) ListRoomTypes(_ context.Context) ([]domain.RoomType, error) {
	return append([]domain.RoomType(nil), f.types...), nil
}

// fakeLedger keeps bookings in insertion order, mirroring how the SQL repo
// orders its reads.
type fakeLedger struct {
	mu       sync.Mutex
	bookings []domain.Booking
}

func (f *fakeLedger) Get(_ context.Context, id string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Booking{}, domain.ErrNotFound
}

func (f *fakeLedger) Insert(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeLedger) Update(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == b.ID {
			f.bookings[i] = b
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeLedger) ListOverlapping(_ context.Context, location, roomTypeID string, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.Location == location && b.RoomTypeID == roomTypeID && b.Status.Active() && b.Overlaps(checkIn, checkOut) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListActive(_ context.Context, roomTypeID string) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.RoomTypeID == roomTypeID && b.Status.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListOnDay(_ context.Context, roomTypeID string, day time.Time) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.RoomTypeID == roomTypeID && b.Status.Active() && b.OnDay(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListExternal(_ context.Context, roomTypeID string) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.RoomTypeID == roomTypeID && b.Status.Active() && b.Source == domain.SourceICal {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) Transact(_ context.Context, fn func(tx domain.BookingStore) error) error {
	return fn(f)
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, _ := json.Marshal(v)
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeFeed struct {
	events []domain.FeedEvent
	err    error
	calls  int
}

func (f *fakeFeed) Fetch(_ context.Context, _ string) ([]domain.FeedEvent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.FeedEvent(nil), f.events...), nil
}

// ---- helpers ----

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func pint(i int) *int       { return &i }
func pstr(s string) *string { return &s }

func booking(id, roomType string, unit *int, status domain.Status, in, out time.Time) domain.Booking {
	return domain.Booking{
		ID:         id,
		RoomTypeID: roomType,
		Location:   "downtown",
		UnitID:     unit,
		GuestName:  "Guest " + id,
		Guests:     1,
		CheckIn:    in,
		CheckOut:   out,
		Status:     status,
		Source:     domain.SourceDirect,
	}
}

func dormRoom(id string, capacity int) domain.RoomType {
	return domain.RoomType{
		ID:               id,
		Location:         "downtown",
		Category:         domain.CategoryDorm,
		CapacityUnits:    capacity,
		BasePrice:        20,
		MaxGuestsPerUnit: 1,
		Housekeeping:     "clean",
	}
}

func privateRoom(id string) domain.RoomType {
	return domain.RoomType{
		ID:               id,
		Location:         "downtown",
		Category:         domain.CategoryPrivate,
		CapacityUnits:    1,
		BasePrice:        80,
		MaxGuestsPerUnit: 2,
		Housekeeping:     "clean",
	}
}
