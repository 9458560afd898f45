package domain

import (
	"context"
	"time"
)

type RoomRepository interface {
	GetRoomType(ctx context.Context, id string) (RoomType, error)
	GetRoomTypeByToken(ctx context.Context, token string) (RoomType, error)
	ListRoomTypes(ctx context.Context) ([]RoomType, error)
}

// BookingStore is the ledger surface shared by the plain repository and the
// transactional view handed to Transact callbacks. All List* methods return
// active (non-cancelled) bookings only.
type BookingStore interface {
	Get(ctx context.Context, id string) (Booking, error)
	Insert(ctx context.Context, b Booking) error
	Update(ctx context.Context, b Booking) error

	// ListOverlapping returns active bookings whose half-open interval
	// overlaps [checkIn, checkOut). Inside a transaction the rows are
	// locked so a concurrent writer cannot also pass the check.
	ListOverlapping(ctx context.Context, location, roomTypeID string, checkIn, checkOut time.Time) ([]Booking, error)
	ListActive(ctx context.Context, roomTypeID string) ([]Booking, error)
	ListOnDay(ctx context.Context, roomTypeID string, day time.Time) ([]Booking, error)
	ListExternal(ctx context.Context, roomTypeID string) ([]Booking, error)
}

type BookingRepository interface {
	BookingStore

	// Transact runs fn inside one transaction; every mutation re-validates
	// availability through the same tx that writes (check-then-write).
	Transact(ctx context.Context, fn func(tx BookingStore) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// FeedEvent is one VEVENT from an external calendar. Entries with missing
// or unparseable dates keep zero times; the synchronizer turns those into
// warnings rather than dropping them silently here.
type FeedEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

type FeedClient interface {
	Fetch(ctx context.Context, url string) ([]FeedEvent, error)
}
