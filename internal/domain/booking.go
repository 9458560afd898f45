package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusCheckedOut  Status = "checked_out"
	StatusCancelled   Status = "cancelled"
	StatusMaintenance Status = "maintenance"
)

// Active reports whether the booking still belongs to the live ledger.
// Cancellation is the only soft-delete state.
func (s Status) Active() bool { return s != StatusCancelled }

// Occupies reports whether a booking in this status withholds a unit from
// availability. Pending bookings hold their unit indefinitely (there is no
// hold expiry) and maintenance blocks count the same as guests.
func (s Status) Occupies() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusMaintenance:
		return true
	}
	return false
}

func (s Status) Terminal() bool { return s == StatusCheckedOut || s == StatusCancelled }

// transitions is the forward guest path plus cancellation from any
// non-terminal state. Maintenance is parallel to the guest flow: nothing
// transitions into it, and unblocking cancels it.
var transitions = map[Status][]Status{
	StatusPending:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:   {StatusCheckedOut, StatusCancelled},
	StatusMaintenance: {StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Extendable reports whether the checkout date may still be pushed out.
func (s Status) Extendable() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusMaintenance:
		return true
	}
	return false
}

type Source string

const (
	SourceDirect Source = "direct"
	SourceICal   Source = "ical"
)

type Booking struct {
	ID                 string
	RoomTypeID         string
	Location           string
	UnitID             *int // nil until a concrete unit is assigned
	GuestName          string
	Email              string
	Phone              string
	Guests             int
	CheckIn            time.Time // inclusive, midnight UTC
	CheckOut           time.Time // exclusive, midnight UTC
	Status             Status
	PaymentStatus      string
	TotalPrice         float64
	Source             Source
	ExternalID         *string // set only when Source == SourceICal
	CancellationReason string
	RefundStatus       string
	RefundAmount       float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Overlaps applies the half-open interval test: the checkout day itself is
// not occupied, so [a,b) and [b,c) never conflict.
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// OnDay reports whether the booking should be visible on day: either the
// interval contains it or one of the boundary days equals it (check-in and
// checkout days stay visible on the grid).
func (b Booking) OnDay(day time.Time) bool {
	return !b.CheckIn.After(day) && !b.CheckOut.Before(day)
}

func (b Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Day truncates t to midnight UTC. All check-in/checkout comparisons happen
// on these normalized values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (b Booking) String() string {
	return fmt.Sprintf("%s %s [%s,%s) %s", b.ID, b.RoomTypeID,
		b.CheckIn.Format("2006-01-02"), b.CheckOut.Format("2006-01-02"), b.Status)
}
