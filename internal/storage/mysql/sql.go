package mysql

const bookingCols = `
  id, guest_name, email, phone, location, room_type, unit_id, guests,
  check_in, check_out, status, payment_status, total_price, source,
  external_id, cancellation_reason, refund_status, refund_amount,
  created_at, updated_at`

const insertBookingSQL = `
INSERT INTO bookings
  (id, guest_name, email, phone, location, room_type, unit_id, guests,
   check_in, check_out, status, payment_status, total_price, source,
   external_id, cancellation_reason, refund_status, refund_amount)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateBookingSQL = `
UPDATE bookings SET
  guest_name          = ?,
  email               = ?,
  phone               = ?,
  unit_id             = ?,
  guests              = ?,
  check_in            = ?,
  check_out           = ?,
  status              = ?,
  payment_status      = ?,
  total_price         = ?,
  cancellation_reason = ?,
  refund_status       = ?,
  refund_amount       = ?,
  updated_at          = CURRENT_TIMESTAMP
WHERE id = ?
`

const getBookingSQL = `SELECT` + bookingCols + ` FROM bookings WHERE id = ?`

// Half-open overlap: existing.check_in < query.check_out AND
// existing.check_out > query.check_in. Cancelled rows are out of play.
const listOverlappingSQL = `
SELECT` + bookingCols + `
FROM bookings
WHERE location = ? AND room_type = ? AND status <> 'cancelled'
  AND check_in < ? AND check_out > ?
ORDER BY created_at, id`

const listActiveSQL = `
SELECT` + bookingCols + `
FROM bookings
WHERE room_type = ? AND status <> 'cancelled'
ORDER BY check_in, id`

// Contains-or-boundary: check_in <= d AND check_out >= d keeps the
// check-in and checkout days visible on the grid.
const listOnDaySQL = `
SELECT` + bookingCols + `
FROM bookings
WHERE room_type = ? AND status <> 'cancelled'
  AND check_in <= ? AND check_out >= ?
ORDER BY created_at, id`

const listExternalSQL = `
SELECT` + bookingCols + `
FROM bookings
WHERE room_type = ? AND status <> 'cancelled' AND source = 'ical'
ORDER BY check_in, id`

const roomTypeCols = `
  id, location, category, capacity_units, base_price, max_guests_per_unit,
  housekeeping, housekeeping_overrides, feed_url, export_token`

const getRoomTypeSQL = `SELECT` + roomTypeCols + ` FROM room_types WHERE id = ?`

const getRoomTypeByTokenSQL = `SELECT` + roomTypeCols + ` FROM room_types WHERE export_token = ?`

const listRoomTypesSQL = `SELECT` + roomTypeCols + ` FROM room_types ORDER BY location, id`
