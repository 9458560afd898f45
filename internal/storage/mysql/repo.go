package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"dormdesk/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs the ledger/catalog queries against either the pool or an open
// transaction. Inside a transaction the overlap reads lock their rows so
// the check-then-write pattern holds under concurrency.
type Store struct {
	q         queryer
	forUpdate bool
}

type Repo struct {
	Store
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{Store: Store{q: db}, db: db} }

func (r *Repo) Transact(ctx context.Context, fn func(tx domain.BookingStore) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Store{q: tx, forUpdate: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---- bookings ----

func (s *Store) Insert(ctx context.Context, b domain.Booking) error {
	_, err := s.q.ExecContext(ctx, insertBookingSQL,
		b.ID,
		b.GuestName,
		nullStr(b.Email),
		nullStr(b.Phone),
		b.Location,
		b.RoomTypeID,
		valInt(b.UnitID),
		b.Guests,
		b.CheckIn,
		b.CheckOut,
		string(b.Status),
		nullStr(b.PaymentStatus),
		b.TotalPrice,
		string(b.Source),
		valStr(b.ExternalID),
		nullStr(b.CancellationReason),
		nullStr(b.RefundStatus),
		b.RefundAmount,
	)
	return err
}

func (s *Store) Update(ctx context.Context, b domain.Booking) error {
	res, err := s.q.ExecContext(ctx, updateBookingSQL,
		b.GuestName,
		nullStr(b.Email),
		nullStr(b.Phone),
		valInt(b.UnitID),
		b.Guests,
		b.CheckIn,
		b.CheckOut,
		string(b.Status),
		nullStr(b.PaymentStatus),
		b.TotalPrice,
		nullStr(b.CancellationReason),
		nullStr(b.RefundStatus),
		b.RefundAmount,
		b.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates; only
		// treat it as missing when the row really is gone
		var one int
		if scanErr := s.q.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, b.ID).Scan(&one); scanErr == sql.ErrNoRows {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Booking, error) {
	q := getBookingSQL
	if s.forUpdate {
		q += " FOR UPDATE"
	}
	row := s.q.QueryRowContext(ctx, q, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (s *Store) ListOverlapping(ctx context.Context, location, roomTypeID string, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	q := listOverlappingSQL
	if s.forUpdate {
		q += " FOR UPDATE"
	}
	return s.list(ctx, q, location, roomTypeID, checkOut, checkIn)
}

func (s *Store) ListActive(ctx context.Context, roomTypeID string) ([]domain.Booking, error) {
	return s.list(ctx, listActiveSQL, roomTypeID)
}

func (s *Store) ListOnDay(ctx context.Context, roomTypeID string, day time.Time) ([]domain.Booking, error) {
	return s.list(ctx, listOnDaySQL, roomTypeID, day, day)
}

func (s *Store) ListExternal(ctx context.Context, roomTypeID string) ([]domain.Booking, error) {
	return s.list(ctx, listExternalSQL, roomTypeID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanBooking(row scanner) (domain.Booking, error) {
	var b domain.Booking
	var (
		email, phone, payment, extID, reason, refund sql.NullString
		unitID                                       sql.NullInt64
		status, source                               string
	)
	if err := row.Scan(
		&b.ID,
		&b.GuestName,
		&email,
		&phone,
		&b.Location,
		&b.RoomTypeID,
		&unitID,
		&b.Guests,
		&b.CheckIn,
		&b.CheckOut,
		&status,
		&payment,
		&b.TotalPrice,
		&source,
		&extID,
		&reason,
		&refund,
		&b.RefundAmount,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.Status(status)
	b.Source = domain.Source(source)
	b.Email = email.String
	b.Phone = phone.String
	b.PaymentStatus = payment.String
	b.CancellationReason = reason.String
	b.RefundStatus = refund.String
	if unitID.Valid {
		u := int(unitID.Int64)
		b.UnitID = &u
	}
	if extID.Valid {
		e := extID.String
		b.ExternalID = &e
	}
	b.CheckIn = domain.Day(b.CheckIn)
	b.CheckOut = domain.Day(b.CheckOut)
	return b, nil
}

// ---- room types ----

func (s *Store) GetRoomType(ctx context.Context, id string) (domain.RoomType, error) {
	return s.roomType(ctx, getRoomTypeSQL, id)
}

func (s *Store) GetRoomTypeByToken(ctx context.Context, token string) (domain.RoomType, error) {
	return s.roomType(ctx, getRoomTypeByTokenSQL, token)
}

func (s *Store) roomType(ctx context.Context, query string, arg any) (domain.RoomType, error) {
	rt, err := scanRoomType(s.q.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, err
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	rows, err := s.q.QueryContext(ctx, listRoomTypesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func scanRoomType(row scanner) (domain.RoomType, error) {
	var rt domain.RoomType
	var (
		category             string
		overridesJSON        []byte
		housekeeping         sql.NullString
		feedURL, exportToken sql.NullString
	)
	if err := row.Scan(
		&rt.ID,
		&rt.Location,
		&category,
		&rt.CapacityUnits,
		&rt.BasePrice,
		&rt.MaxGuestsPerUnit,
		&housekeeping,
		&overridesJSON,
		&feedURL,
		&exportToken,
	); err != nil {
		return domain.RoomType{}, err
	}
	rt.Category = domain.Category(category)
	rt.Housekeeping = housekeeping.String
	if feedURL.Valid {
		u := feedURL.String
		rt.FeedURL = &u
	}
	if exportToken.Valid {
		tk := exportToken.String
		rt.ExportToken = &tk
	}
	if len(overridesJSON) > 0 {
		// JSON object keys are strings; unit ids are ints
		var raw map[string]string
		if err := json.Unmarshal(overridesJSON, &raw); err != nil {
			return domain.RoomType{}, fmt.Errorf("housekeeping_overrides for %s: %w", rt.ID, err)
		}
		rt.HousekeepingBy = make(map[int]string, len(raw))
		for k, v := range raw {
			if id, err := strconv.Atoi(k); err == nil {
				rt.HousekeepingBy[id] = v
			}
		}
	}
	return rt, nil
}
