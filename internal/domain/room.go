package domain

import "fmt"

type Category string

const (
	CategoryDorm    Category = "dorm"
	CategoryPrivate Category = "private"
	CategorySuite   Category = "suite"
)

// WholeRoom reports whether a single booking consumes the entire room.
// Private and suite rooms are booked whole regardless of party size; dorm
// beds are interchangeable units booked one at a time.
func (c Category) WholeRoom() bool { return c != CategoryDorm }

func (c Category) Valid() bool {
	switch c {
	case CategoryDorm, CategoryPrivate, CategorySuite:
		return true
	}
	return false
}

type RoomType struct {
	ID               string
	Location         string
	Category         Category
	CapacityUnits    int // >= 1; number of beds for dorms, 1 for whole rooms
	BasePrice        float64
	MaxGuestsPerUnit int
	Housekeeping     string         // room-type-level default
	HousekeepingBy   map[int]string // per-unit override, keyed by unit id
	FeedURL          *string        // external calendar to import, if any
	ExportToken      *string        // opaque token for the read-only export feed
}

// UnitLabel returns the deterministic display label for the 1-based unit id.
func (rt RoomType) UnitLabel(unitID int) string {
	if rt.Category == CategoryDorm {
		return fmt.Sprintf("Bed %d", unitID)
	}
	return "Room"
}

// UnitHousekeeping resolves the housekeeping sub-status for one unit,
// falling back to the room-type default.
func (rt RoomType) UnitHousekeeping(unitID int) string {
	if v, ok := rt.HousekeepingBy[unitID]; ok {
		return v
	}
	return rt.Housekeeping
}

// HasUnit reports whether unitID is in range for this room type.
func (rt RoomType) HasUnit(unitID int) bool {
	return unitID >= 1 && unitID <= rt.CapacityUnits
}

type UnitStatus string

const (
	UnitAvailable     UnitStatus = "available"
	UnitOccupied      UnitStatus = "occupied"
	UnitCheckinToday  UnitStatus = "checkin-today"
	UnitCheckoutToday UnitStatus = "checkout-today"
	UnitPending       UnitStatus = "pending"
	UnitMaintenance   UnitStatus = "maintenance"
	UnitPaymentCheck  UnitStatus = "payment-verifying"
)

// Unit is one slot of the per-day occupancy projection. A projection only:
// it never feeds back into the ledger.
type Unit struct {
	ID           int
	Label        string
	Status       UnitStatus
	Housekeeping string
	Booking      *Booking // occupant, nil when available
}
