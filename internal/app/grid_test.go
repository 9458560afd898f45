package app_test

import (
	"testing"
	"time"

	"dormdesk/internal/app"
	"dormdesk/internal/domain"
)

func TestBuildOccupancyGrid_ExplicitUnitsFirstThenInsertionOrder(t *testing.T) {
	rt := dormRoom("dorm-4", 4)
	day := d(2030, time.June, 10)
	in, out := d(2030, time.June, 9), d(2030, time.June, 12)

	bookings := []domain.Booking{
		booking("free-a", rt.ID, nil, domain.StatusConfirmed, in, out),
		booking("pinned-3", rt.ID, pint(3), domain.StatusConfirmed, in, out),
		booking("free-b", rt.ID, nil, domain.StatusConfirmed, in, out),
	}

	units := app.BuildOccupancyGrid(rt, bookings, day)
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(units))
	}
	if units[2].Booking == nil || units[2].Booking.ID != "pinned-3" {
		t.Fatalf("explicit unit 3 not honored: %+v", units[2])
	}
	if units[0].Booking == nil || units[0].Booking.ID != "free-a" {
		t.Fatalf("first unassigned should fill slot 1, got %+v", units[0])
	}
	if units[1].Booking == nil || units[1].Booking.ID != "free-b" {
		t.Fatalf("second unassigned should fill slot 2, got %+v", units[1])
	}
	if units[3].Booking != nil || units[3].Status != domain.UnitAvailable {
		t.Fatalf("slot 4 should stay available, got %+v", units[3])
	}
}

func TestBuildOccupancyGrid_Deterministic(t *testing.T) {
	rt := dormRoom("dorm-3", 3)
	day := d(2030, time.June, 10)
	bookings := []domain.Booking{
		booking("a", rt.ID, nil, domain.StatusConfirmed, d(2030, time.June, 9), d(2030, time.June, 11)),
		booking("b", rt.ID, nil, domain.StatusConfirmed, d(2030, time.June, 9), d(2030, time.June, 11)),
	}
	first := app.BuildOccupancyGrid(rt, bookings, day)
	for i := 0; i < 10; i++ {
		again := app.BuildOccupancyGrid(rt, bookings, day)
		for j := range first {
			wantNil := first[j].Booking == nil
			gotNil := again[j].Booking == nil
			if wantNil != gotNil || (!wantNil && first[j].Booking.ID != again[j].Booking.ID) {
				t.Fatalf("grid not reproducible at slot %d", j+1)
			}
		}
	}
}

func TestBuildOccupancyGrid_OutOfRangeUnitTreatedUnassigned(t *testing.T) {
	rt := dormRoom("dorm-2", 2)
	day := d(2030, time.June, 10)
	bookings := []domain.Booking{
		booking("stray", rt.ID, pint(9), domain.StatusConfirmed, d(2030, time.June, 9), d(2030, time.June, 11)),
	}
	units := app.BuildOccupancyGrid(rt, bookings, day)
	if units[0].Booking == nil || units[0].Booking.ID != "stray" {
		t.Fatalf("out-of-range unit id should fall back to the first free slot, got %+v", units[0])
	}
}

func TestBuildOccupancyGrid_BoundaryDaysVisible(t *testing.T) {
	rt := dormRoom("dorm-2", 2)
	in, out := d(2030, time.June, 9), d(2030, time.June, 11)

	arriving := booking("arriving", rt.ID, pint(1), domain.StatusConfirmed, in, out)
	leaving := booking("leaving", rt.ID, pint(2), domain.StatusConfirmed, d(2030, time.June, 7), in)

	units := app.BuildOccupancyGrid(rt, []domain.Booking{arriving, leaving}, in)
	if units[0].Status != domain.UnitCheckinToday {
		t.Fatalf("unit 1 should read checkin-today, got %s", units[0].Status)
	}
	if units[1].Status != domain.UnitCheckoutToday {
		t.Fatalf("checkout-day booking stays visible, got %s", units[1].Status)
	}
}

func TestBuildOccupancyGrid_SameUnitHandoverOnCheckoutDay(t *testing.T) {
	rt := dormRoom("dorm-2", 2)
	handover := d(2030, time.June, 10)

	departing := booking("departing", rt.ID, pint(1), domain.StatusCheckedIn, d(2030, time.June, 7), handover)
	arriving := booking("arriving", rt.ID, pint(1), domain.StatusConfirmed, handover, d(2030, time.June, 12))

	// the guest staying the coming night owns the bed, whichever order the
	// ledger returns the two bookings in
	for _, order := range [][]domain.Booking{
		{departing, arriving},
		{arriving, departing},
	} {
		units := app.BuildOccupancyGrid(rt, order, handover)
		if units[0].Booking == nil || units[0].Booking.ID != "arriving" {
			t.Fatalf("unit 1 should show the arriving guest, got %+v", units[0])
		}
		if units[0].Status != domain.UnitCheckinToday {
			t.Fatalf("unit 1 status: %s", units[0].Status)
		}
		if units[1].Booking == nil || units[1].Booking.ID != "departing" {
			t.Fatalf("departing guest should stay visible on a free slot, got %+v", units[1])
		}
		if units[1].Status != domain.UnitCheckoutToday {
			t.Fatalf("unit 2 status: %s", units[1].Status)
		}
	}
}

func TestBuildOccupancyGrid_StatusDerivation(t *testing.T) {
	rt := dormRoom("dorm-4", 4)
	day := d(2030, time.June, 10)
	in, out := d(2030, time.June, 9), d(2030, time.June, 12)

	pending := booking("p", rt.ID, pint(1), domain.StatusPending, in, out)
	maint := booking("m", rt.ID, pint(2), domain.StatusMaintenance, in, out)
	verifying := booking("v", rt.ID, pint(3), domain.StatusConfirmed, in, out)
	verifying.PaymentStatus = "verifying"
	occupied := booking("o", rt.ID, pint(4), domain.StatusCheckedIn, in, out)

	units := app.BuildOccupancyGrid(rt, []domain.Booking{pending, maint, verifying, occupied}, day)
	want := []domain.UnitStatus{domain.UnitPending, domain.UnitMaintenance, domain.UnitPaymentCheck, domain.UnitOccupied}
	for i, w := range want {
		if units[i].Status != w {
			t.Fatalf("unit %d: want %s, got %s", i+1, w, units[i].Status)
		}
	}
}

func TestBuildOccupancyGrid_HousekeepingOverride(t *testing.T) {
	rt := dormRoom("dorm-2", 2)
	rt.HousekeepingBy = map[int]string{2: "dirty"}
	units := app.BuildOccupancyGrid(rt, nil, d(2030, time.June, 10))
	if units[0].Housekeeping != "clean" {
		t.Fatalf("unit 1 should inherit room default, got %q", units[0].Housekeeping)
	}
	if units[1].Housekeeping != "dirty" {
		t.Fatalf("unit 2 override not applied, got %q", units[1].Housekeeping)
	}
}
