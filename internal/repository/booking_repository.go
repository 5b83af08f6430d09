package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// BookingRepo persists bookings.  The confirmed-slot unique index on the
// bookings table is the final arbiter of double booking: Create and Update
// surface a violation as ErrConflict.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, booking_code, customer_name, customer_email, customer_phone,
	screen_id, location_id, booking_date, slot_name, slot_start, slot_end, slot_duration,
	event_type, number_of_guests, special_requests, base_price, additional_charges,
	discount_amount, discount_reason, total_amount, advance_paid, remaining_amount,
	booking_status, cancel_reason, cancelled_at, cancelled_by, refund_amount, refund_status,
	created_by, last_modified_by, created_at, updated_at`

func scanBooking(s scanner) (model.Booking, error) {
	var b model.Booking
	var special, charges []byte
	var cancelReason, refundStatus sql.NullString
	var cancelledAt sql.NullTime
	var cancelledBy sql.NullInt64
	var refundAmount sql.NullFloat64
	err := s.Scan(
		&b.ID, &b.BookingID, &b.CustomerInfo.Name, &b.CustomerInfo.Email, &b.CustomerInfo.Phone,
		&b.ScreenID, &b.LocationID, &b.BookingDate, &b.TimeSlot.Name, &b.TimeSlot.StartTime, &b.TimeSlot.EndTime, &b.TimeSlot.Duration,
		&b.EventType, &b.NumberOfGuests, &special, &b.Pricing.BasePrice, &charges,
		&b.Pricing.DiscountApplied.Amount, &b.Pricing.DiscountApplied.Reason, &b.Pricing.TotalAmount,
		&b.PaymentInfo.AdvancePaid, &b.PaymentInfo.RemainingAmount,
		&b.BookingStatus, &cancelReason, &cancelledAt, &cancelledBy, &refundAmount, &refundStatus,
		&b.CreatedBy, &b.LastModifiedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	if err := decodeJSON(special, &b.SpecialRequests); err != nil {
		return b, err
	}
	if err := decodeJSON(charges, &b.Pricing.AdditionalCharges); err != nil {
		return b, err
	}
	if b.Pricing.AdditionalCharges == nil {
		b.Pricing.AdditionalCharges = []model.Charge{}
	}
	b.BookingDate = b.BookingDate.UTC()
	if cancelledAt.Valid {
		b.Cancellation = &model.Cancellation{
			Reason:       cancelReason.String,
			CancelledAt:  cancelledAt.Time.UTC(),
			CancelledBy:  uint64(cancelledBy.Int64),
			RefundAmount: refundAmount.Float64,
			RefundStatus: refundStatus.String,
		}
	}
	return b, nil
}

// cancellationArgs flattens the optional cancellation block into nullable
// column values.
func cancellationArgs(c *model.Cancellation) []any {
	if c == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{c.Reason, c.CancelledAt.UTC(), c.CancelledBy, c.RefundAmount, c.RefundStatus}
}

// Create inserts a booking and reloads it so that ID and timestamps are
// populated.  A confirmed booking that collides with another confirmed
// booking for the same screen, date and slot yields ErrConflict.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	special, err := jsonColumn(b.SpecialRequests)
	if err != nil {
		return err
	}
	charges, err := jsonColumn(b.Pricing.AdditionalCharges)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (booking_code, customer_name, customer_email, customer_phone,
		screen_id, location_id, booking_date, slot_name, slot_start, slot_end, slot_duration,
		event_type, number_of_guests, special_requests, base_price, additional_charges,
		discount_amount, discount_reason, total_amount, advance_paid, remaining_amount,
		booking_status, cancel_reason, cancelled_at, cancelled_by, refund_amount, refund_status,
		created_by, last_modified_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		b.BookingID, b.CustomerInfo.Name, b.CustomerInfo.Email, b.CustomerInfo.Phone,
		b.ScreenID, b.LocationID, dateArg(b.BookingDate), b.TimeSlot.Name, b.TimeSlot.StartTime, b.TimeSlot.EndTime, b.TimeSlot.Duration,
		b.EventType, b.NumberOfGuests, special, b.Pricing.BasePrice, charges,
		b.Pricing.DiscountApplied.Amount, b.Pricing.DiscountApplied.Reason, b.Pricing.TotalAmount,
		b.PaymentInfo.AdvancePaid, b.PaymentInfo.RemainingAmount, b.BookingStatus,
	}
	args = append(args, cancellationArgs(b.Cancellation)...)
	args = append(args, b.CreatedBy, b.LastModifiedBy)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// GetByID returns ErrBookingNotFound when no booking has the given ID.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Update rewrites every mutable column of a booking.  The booking code,
// screen, location and creator never change after creation.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	special, err := jsonColumn(b.SpecialRequests)
	if err != nil {
		return err
	}
	charges, err := jsonColumn(b.Pricing.AdditionalCharges)
	if err != nil {
		return err
	}
	const q = `UPDATE bookings SET customer_name = ?, customer_email = ?, customer_phone = ?,
		booking_date = ?, slot_name = ?, slot_start = ?, slot_end = ?, slot_duration = ?,
		event_type = ?, number_of_guests = ?, special_requests = ?, base_price = ?, additional_charges = ?,
		discount_amount = ?, discount_reason = ?, total_amount = ?, advance_paid = ?, remaining_amount = ?,
		booking_status = ?, cancel_reason = ?, cancelled_at = ?, cancelled_by = ?, refund_amount = ?, refund_status = ?,
		last_modified_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	args := []any{
		b.CustomerInfo.Name, b.CustomerInfo.Email, b.CustomerInfo.Phone,
		dateArg(b.BookingDate), b.TimeSlot.Name, b.TimeSlot.StartTime, b.TimeSlot.EndTime, b.TimeSlot.Duration,
		b.EventType, b.NumberOfGuests, special, b.Pricing.BasePrice, charges,
		b.Pricing.DiscountApplied.Amount, b.Pricing.DiscountApplied.Reason, b.Pricing.TotalAmount,
		b.PaymentInfo.AdvancePaid, b.PaymentInfo.RemainingAmount, b.BookingStatus,
	}
	args = append(args, cancellationArgs(b.Cancellation)...)
	args = append(args, b.LastModifiedBy, b.ID)
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return mapWriteErr(err)
	}
	fresh, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// FindConfirmedMatch returns the confirmed booking that holds exactly the
// given slot (same screen, date, start and end), or nil when the slot is
// free.  excludeID lets an update ignore the booking being edited.
func (r *BookingRepo) FindConfirmedMatch(ctx context.Context, screenID uint64, date time.Time, start, end string, excludeID uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE screen_id = ? AND booking_date = ? AND slot_start = ? AND slot_end = ?
		  AND booking_status = 'confirmed' AND id <> ?
		LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, screenID, dateArg(date), start, end, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListConfirmedByLocationDate returns all confirmed bookings of a location
// on one date.  The availability checker matches them against the slot
// catalog in memory.
func (r *BookingRepo) ListConfirmedByLocationDate(ctx context.Context, locationID uint64, date time.Time) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE location_id = ? AND booking_date = ? AND booking_status = 'confirmed'
		ORDER BY screen_id ASC, slot_start ASC`, locationID, dateArg(date))
}

// BusyScreensOverlapping returns the set of screens of a location that have
// a confirmed booking whose slot partially overlaps [start, end) on the
// given date.  HH:MM strings are zero padded so they compare in time order.
func (r *BookingRepo) BusyScreensOverlapping(ctx context.Context, locationID uint64, date time.Time, start, end string) (map[uint64]struct{}, error) {
	const q = `SELECT DISTINCT screen_id FROM bookings
		WHERE location_id = ? AND booking_date = ? AND booking_status = 'confirmed'
		  AND NOT (slot_end <= ? OR slot_start >= ?)`
	rows, err := r.db.QueryContext(ctx, q, locationID, dateArg(date), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	busy := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		busy[id] = struct{}{}
	}
	return busy, rows.Err()
}

// List returns bookings matching the filter, newest booking date first.
// A non-nil but empty LocationIDs slice means the caller may see no
// location at all, so the result is empty.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	if f.LocationIDs != nil && len(f.LocationIDs) == 0 {
		return []model.Booking{}, nil
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	if len(f.LocationIDs) > 0 {
		q += ` AND location_id IN (` + placeholders(len(f.LocationIDs)) + `)`
		args = append(args, uint64Args(f.LocationIDs)...)
	}
	if f.LocationID != 0 {
		q += ` AND location_id = ?`
		args = append(args, f.LocationID)
	}
	if f.ScreenID != 0 {
		q += ` AND screen_id = ?`
		args = append(args, f.ScreenID)
	}
	if f.Status != "" {
		q += ` AND booking_status = ?`
		args = append(args, f.Status)
	}
	if f.StartDate != nil {
		q += ` AND booking_date >= ?`
		args = append(args, dateArg(*f.StartDate))
	}
	if f.EndDate != nil {
		q += ` AND booking_date <= ?`
		args = append(args, dateArg(*f.EndDate))
	}
	q += ` ORDER BY booking_date DESC, slot_start ASC, id DESC`
	return r.list(ctx, q, args...)
}

// CompleteBefore marks every confirmed booking dated strictly before the
// given day as completed and returns how many rows changed.  Completed
// rows release the confirmed-slot index entry.
func (r *BookingRepo) CompleteBefore(ctx context.Context, day time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET booking_status = 'completed', updated_at = CURRENT_TIMESTAMP
		 WHERE booking_status = 'confirmed' AND booking_date < ?`, dateArg(day))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
