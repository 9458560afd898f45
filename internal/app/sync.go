package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"dormdesk/internal/adapters/observability"
	"dormdesk/internal/domain"
)

// Sync reconciles the ledger against one external calendar feed per room
// type, import direction only. Runs are single-flight per room type; syncs
// for different room types may proceed concurrently.
//
// Known limitation, preserved deliberately: imported bookings do not pass
// through the availability engine, so an import can land without a unit and
// can co-locate with a direct booking a staff member pinned afterwards. When
// that overlap is detectable the run records a warning instead of silently
// accepting it.
type Sync struct {
	rooms  domain.RoomRepository
	ledger domain.BookingRepository
	feed   domain.FeedClient
	sf     singleflight.Group
	now    func() time.Time
}

func NewSync(rooms domain.RoomRepository, ledger domain.BookingRepository, feed domain.FeedClient) *Sync {
	return &Sync{rooms: rooms, ledger: ledger, feed: feed, now: time.Now}
}

// SyncRoom fetches the feed and upserts one confirmed, zero-priced booking
// per valid event, keyed by external id. Refs previously imported but absent
// from the feed are cancelled. The run succeeds as long as the feed was
// fetchable; per-entry failures are reported in the result. Re-running with
// an unchanged feed is a no-op.
func (s *Sync) SyncRoom(ctx context.Context, roomTypeID, feedURL string) (domain.SyncResult, error) {
	v, err, _ := s.sf.Do(roomTypeID, func() (any, error) {
		return s.run(ctx, roomTypeID, feedURL)
	})
	if err != nil {
		return domain.SyncResult{RoomTypeID: roomTypeID}, err
	}
	return v.(domain.SyncResult), nil
}

func (s *Sync) run(ctx context.Context, roomTypeID, feedURL string) (domain.SyncResult, error) {
	start := s.now()
	res := domain.SyncResult{RoomTypeID: roomTypeID}

	rt, err := s.rooms.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return res, err
	}

	events, err := s.feed.Fetch(ctx, feedURL)
	if err != nil {
		observability.ObserveSync("fetch_error", time.Since(start))
		return res, &domain.FeedFetchError{URL: feedURL, Err: err}
	}

	known, err := s.ledger.ListExternal(ctx, roomTypeID)
	if err != nil {
		return res, err
	}
	byRef := make(map[string]domain.Booking, len(known))
	for _, b := range known {
		if b.ExternalID != nil {
			byRef[*b.ExternalID] = b
		}
	}

	active, err := s.ledger.ListActive(ctx, roomTypeID)
	if err != nil {
		return res, err
	}

	today := domain.Day(s.now().UTC())
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		warn := validateEvent(ev, today)
		if warn != "" {
			res.Warnings = append(res.Warnings, warn)
			continue
		}
		// feeds may legally repeat a UID (recurring events); the ledger
		// keeps one row per external ref, so only the first wins
		if seen[ev.UID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("event %s repeats an already processed uid", ev.UID))
			continue
		}
		seen[ev.UID] = true
		delete(byRef, ev.UID)
		if err := s.upsert(ctx, rt, ev, &res, active); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("event %s: %v", ev.UID, err))
		}
	}

	// anything still in byRef no longer exists upstream
	for ref, b := range byRef {
		b.Status = domain.StatusCancelled
		b.CancellationReason = "removed from external feed"
		b.UpdatedAt = s.now().UTC()
		if err := s.ledger.Update(ctx, b); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("cancel %s: %v", ref, err))
			continue
		}
		res.Cancelled++
	}

	res.DurationMS = time.Since(start).Milliseconds()
	observability.ObserveSync("ok", time.Since(start))
	observability.ObserveSyncEntries(res)
	log.Info().Str("room_type", roomTypeID).
		Int("imported", res.Imported).Int("cancelled", res.Cancelled).
		Int("errors", len(res.Errors)).Int("warnings", len(res.Warnings)).
		Int64("duration_ms", res.DurationMS).
		Msg("sync completed")
	return res, nil
}

func validateEvent(ev domain.FeedEvent, today time.Time) string {
	switch {
	case ev.UID == "":
		return "event without uid skipped"
	case ev.Start.IsZero() || ev.End.IsZero():
		return fmt.Sprintf("event %s missing start or end", ev.UID)
	case !ev.Start.Before(ev.End):
		return fmt.Sprintf("event %s has start >= end", ev.UID)
	case ev.End.Before(today):
		return fmt.Sprintf("event %s already ended", ev.UID)
	}
	return ""
}

func (s *Sync) upsert(ctx context.Context, rt domain.RoomType, ev domain.FeedEvent, res *domain.SyncResult, active []domain.Booking) error {
	start, end := domain.Day(ev.Start), domain.Day(ev.End)
	now := s.now().UTC()

	for _, d := range active {
		if d.Source == domain.SourceDirect && d.Status.Occupies() && d.Overlaps(start, end) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("event %s overlaps direct booking %s", ev.UID, d.ID))
			break
		}
	}

	// one row per external ref, idempotent on re-runs
	existing, found := findByRef(active, ev.UID)
	if found {
		if existing.CheckIn.Equal(start) && existing.CheckOut.Equal(end) && existing.GuestName == guestName(ev) {
			return nil // unchanged
		}
		existing.CheckIn = start
		existing.CheckOut = end
		existing.GuestName = guestName(ev)
		existing.UpdatedAt = now
		if err := s.ledger.Update(ctx, existing); err != nil {
			return err
		}
		res.Imported++
		return nil
	}

	ref := ev.UID
	b := domain.Booking{
		ID:         uuid.NewString(),
		RoomTypeID: rt.ID,
		Location:   rt.Location,
		GuestName:  guestName(ev),
		Guests:     1,
		CheckIn:    start,
		CheckOut:   end,
		Status:     domain.StatusConfirmed,
		TotalPrice: 0,
		Source:     domain.SourceICal,
		ExternalID: &ref,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.ledger.Insert(ctx, b); err != nil {
		return err
	}
	res.Imported++
	return nil
}

func findByRef(bookings []domain.Booking, ref string) (domain.Booking, bool) {
	for _, b := range bookings {
		if b.Source == domain.SourceICal && b.ExternalID != nil && *b.ExternalID == ref {
			return b, true
		}
	}
	return domain.Booking{}, false
}

func guestName(ev domain.FeedEvent) string {
	if n := strings.TrimSpace(ev.Summary); n != "" {
		return n
	}
	return "External booking"
}
