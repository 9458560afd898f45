package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dormdesk/internal/adapters/observability"
	"dormdesk/internal/domain"
)

// Bookings owns every ledger mutation: create, extend, status transitions,
// cancellation, unit reassignment and maintenance blocks. Each write
// re-validates availability inside the transaction that performs it, so two
// racing writers on the same unit and overlapping dates cannot both commit.
type Bookings struct {
	rooms    domain.RoomRepository
	ledger   domain.BookingRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewBookings(rooms domain.RoomRepository, ledger domain.BookingRepository) *Bookings {
	return &Bookings{
		rooms:    rooms,
		ledger:   ledger,
		validate: validator.New(),
		now:      time.Now,
	}
}

type CreateBookingInput struct {
	RoomTypeID    string    `json:"room_type_id" validate:"required"`
	Location      string    `json:"location" validate:"required"`
	GuestName     string    `json:"guest_name" validate:"required"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone"`
	Guests        int       `json:"guests" validate:"min=1"`
	Units         int       `json:"units" validate:"min=0"` // dorm only; 0 means 1
	CheckIn       time.Time `json:"check_in" validate:"required"`
	CheckOut      time.Time `json:"check_out" validate:"required"`
	PaymentStatus string    `json:"payment_status"`
	UnitID        *int      `json:"unit_id"`
}

// Create books `units` beds (dorm) or the whole room (private/suite) for
// [check_in, check_out). A group dorm booking becomes one ledger row per
// bed, linked only by a guest-name suffix; there is no group identifier.
func (s *Bookings) Create(ctx context.Context, in CreateBookingInput) ([]domain.Booking, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, domain.Invalid("request", err.Error())
	}
	checkIn, checkOut := domain.Day(in.CheckIn), domain.Day(in.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, domain.Invalid("check_out", "must be after check_in")
	}
	rt, err := s.rooms.GetRoomType(ctx, in.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if rt.Location != in.Location {
		return nil, domain.Invalid("location", "does not match room type")
	}
	units := in.Units
	if units <= 0 {
		units = 1
	}
	if rt.Category.WholeRoom() {
		units = 1 // whole room regardless of party size
	} else if units > rt.CapacityUnits {
		return nil, domain.Invalid("units", fmt.Sprintf("room has %d units", rt.CapacityUnits))
	}
	if in.UnitID != nil {
		if units > 1 {
			return nil, domain.Invalid("unit_id", "cannot pin a unit on a group booking")
		}
		if !rt.HasUnit(*in.UnitID) {
			return nil, domain.Invalid("unit_id", "out of range")
		}
	}
	if in.Guests > units*rt.MaxGuestsPerUnit {
		return nil, domain.Invalid("guests", fmt.Sprintf("exceeds %d per unit", rt.MaxGuestsPerUnit))
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	now := s.now().UTC()

	var created []domain.Booking
	err = s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		overlapping, err := tx.ListOverlapping(ctx, rt.Location, rt.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if !fits(rt, overlapping, units) {
			observability.ObserveConflict("create")
			return &domain.ConflictError{RoomTypeID: rt.ID, CheckIn: checkIn, CheckOut: checkOut}
		}
		if in.UnitID != nil && !unitFree(rt, overlapping, in.UnitID, "") {
			observability.ObserveConflict("create")
			return &domain.ConflictError{RoomTypeID: rt.ID, UnitID: in.UnitID, CheckIn: checkIn, CheckOut: checkOut}
		}
		for i := 0; i < units; i++ {
			name := in.GuestName
			if units > 1 {
				name = fmt.Sprintf("%s (bed %d/%d)", in.GuestName, i+1, units)
			}
			b := domain.Booking{
				ID:            uuid.NewString(),
				RoomTypeID:    rt.ID,
				Location:      rt.Location,
				UnitID:        in.UnitID,
				GuestName:     name,
				Email:         in.Email,
				Phone:         in.Phone,
				Guests:        in.Guests,
				CheckIn:       checkIn,
				CheckOut:      checkOut,
				Status:        domain.StatusPending,
				PaymentStatus: in.PaymentStatus,
				TotalPrice:    float64(nights) * rt.BasePrice,
				Source:        domain.SourceDirect,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Insert(ctx, b); err != nil {
				return err
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room_type", rt.ID).Int("rows", len(created)).
		Str("check_in", checkIn.Format("2006-01-02")).
		Str("check_out", checkOut.Format("2006-01-02")).
		Msg("booking created")
	return created, nil
}

func (s *Bookings) Get(ctx context.Context, id string) (domain.Booking, error) {
	return s.ledger.Get(ctx, id)
}

// Extend pushes the checkout date out, re-checking [oldCheckOut,
// newCheckOut) for the same unit inside the committing transaction. On
// conflict the booking is left untouched.
func (s *Bookings) Extend(ctx context.Context, id string, newCheckOut time.Time) (domain.Booking, error) {
	newCheckOut = domain.Day(newCheckOut)
	var out domain.Booking
	err := s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.Extendable() {
			return domain.Invalid("status", fmt.Sprintf("cannot extend a %s booking", b.Status))
		}
		if !newCheckOut.After(b.CheckOut) {
			return domain.Invalid("check_out", "must be after current checkout")
		}
		rt, err := s.rooms.GetRoomType(ctx, b.RoomTypeID)
		if err != nil {
			return err
		}
		overlapping, err := tx.ListOverlapping(ctx, b.Location, b.RoomTypeID, b.CheckOut, newCheckOut)
		if err != nil {
			return err
		}
		if !unitFree(rt, overlapping, b.UnitID, b.ID) {
			observability.ObserveConflict("extend")
			return &domain.ConflictError{RoomTypeID: b.RoomTypeID, UnitID: b.UnitID, CheckIn: b.CheckOut, CheckOut: newCheckOut}
		}
		b.CheckOut = newCheckOut
		b.TotalPrice = float64(b.Nights()) * rt.BasePrice
		b.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// UpdateStatus applies one legal state-machine step. Cancellation goes
// through Cancel so a reason is always recorded.
func (s *Bookings) UpdateStatus(ctx context.Context, id string, next domain.Status) (domain.Booking, error) {
	if !next.Valid() {
		return domain.Booking{}, domain.Invalid("status", "unknown status")
	}
	if next == domain.StatusCancelled {
		return s.Cancel(ctx, id, CancelInput{Reason: "cancelled"})
	}
	var out domain.Booking
	err := s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(next) {
			return domain.Invalid("status", fmt.Sprintf("%s -> %s is not a legal transition", b.Status, next))
		}
		b.Status = next
		b.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

type CancelInput struct {
	Reason       string  `json:"reason"`
	RefundStatus string  `json:"refund_status"`
	RefundAmount float64 `json:"refund_amount"`
}

// Cancel is terminal and reachable from any non-terminal state. Refund
// fields are recorded for reporting only.
func (s *Bookings) Cancel(ctx context.Context, id string, in CancelInput) (domain.Booking, error) {
	var out domain.Booking
	err := s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return domain.Invalid("status", fmt.Sprintf("cannot cancel a %s booking", b.Status))
		}
		b.Status = domain.StatusCancelled
		b.CancellationReason = in.Reason
		b.RefundStatus = in.RefundStatus
		b.RefundAmount = in.RefundAmount
		b.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// ReassignUnit moves a booking to a concrete unit, conflict-checked over
// the booking's own interval.
func (s *Bookings) ReassignUnit(ctx context.Context, id string, unitID int) (domain.Booking, error) {
	var out domain.Booking
	err := s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		b, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return domain.Invalid("status", fmt.Sprintf("cannot reassign a %s booking", b.Status))
		}
		rt, err := s.rooms.GetRoomType(ctx, b.RoomTypeID)
		if err != nil {
			return err
		}
		if !rt.HasUnit(unitID) {
			return domain.Invalid("unit_id", "out of range")
		}
		overlapping, err := tx.ListOverlapping(ctx, b.Location, b.RoomTypeID, b.CheckIn, b.CheckOut)
		if err != nil {
			return err
		}
		if !unitFree(rt, overlapping, &unitID, b.ID) {
			observability.ObserveConflict("reassign")
			return &domain.ConflictError{RoomTypeID: b.RoomTypeID, UnitID: &unitID, CheckIn: b.CheckIn, CheckOut: b.CheckOut}
		}
		b.UnitID = &unitID
		b.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// BlockUnit withholds a unit with a synthetic, guestless maintenance
// booking. Goes through the same availability path as a direct booking.
func (s *Bookings) BlockUnit(ctx context.Context, roomTypeID string, unitID int, from, to time.Time) (domain.Booking, error) {
	from, to = domain.Day(from), domain.Day(to)
	if !from.Before(to) {
		return domain.Booking{}, domain.Invalid("to", "must be after from")
	}
	rt, err := s.rooms.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !rt.HasUnit(unitID) {
		return domain.Booking{}, domain.Invalid("unit_id", "out of range")
	}
	now := s.now().UTC()
	var out domain.Booking
	err = s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		overlapping, err := tx.ListOverlapping(ctx, rt.Location, rt.ID, from, to)
		if err != nil {
			return err
		}
		if !unitFree(rt, overlapping, &unitID, "") {
			observability.ObserveConflict("block")
			return &domain.ConflictError{RoomTypeID: rt.ID, UnitID: &unitID, CheckIn: from, CheckOut: to}
		}
		b := domain.Booking{
			ID:         uuid.NewString(),
			RoomTypeID: rt.ID,
			Location:   rt.Location,
			UnitID:     &unitID,
			Guests:     0,
			CheckIn:    from,
			CheckOut:   to,
			Status:     domain.StatusMaintenance,
			Source:     domain.SourceDirect,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// UnblockUnit lifts a maintenance block by cancelling its synthetic booking.
func (s *Bookings) UnblockUnit(ctx context.Context, bookingID string) (domain.Booking, error) {
	var out domain.Booking
	err := s.ledger.Transact(ctx, func(tx domain.BookingStore) error {
		b, err := tx.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.StatusMaintenance {
			return domain.Invalid("status", "not a maintenance block")
		}
		b.Status = domain.StatusCancelled
		b.CancellationReason = "unblocked"
		b.UpdatedAt = s.now().UTC()
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}
