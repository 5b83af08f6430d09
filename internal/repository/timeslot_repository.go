package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// TimeSlotRepo manages the slot catalog.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo constructs a TimeSlotRepo with the given DB handle.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

const slotColumns = `id, name, start_time, end_time, is_active, created_by, created_at, updated_at`

func scanSlot(s scanner) (model.TimeSlot, error) {
	var ts model.TimeSlot
	err := s.Scan(&ts.ID, &ts.Name, &ts.StartTime, &ts.EndTime, &ts.IsActive, &ts.CreatedBy, &ts.CreatedAt, &ts.UpdatedAt)
	return ts, err
}

func (r *TimeSlotRepo) list(ctx context.Context, q string, args ...any) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TimeSlot, 0)
	for rows.Next() {
		ts, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the whole catalog ordered by start time.
func (r *TimeSlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM time_slots ORDER BY start_time ASC, end_time ASC, id ASC`)
}

// ListActive returns the active catalog in declaration order (start time,
// then end time).  This is the single source of bookable slots.
func (r *TimeSlotRepo) ListActive(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE is_active = 1 ORDER BY start_time ASC, end_time ASC, id ASC`)
}

// GetByID returns ErrTimeSlotNotFound when the slot does not exist.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	ts, err := scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, err
	}
	return &ts, nil
}

// Create inserts a slot and reloads it to populate defaults.
func (r *TimeSlotRepo) Create(ctx context.Context, ts *model.TimeSlot) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_slots (name, start_time, end_time, is_active, created_by) VALUES (?, ?, ?, ?, ?)`,
		ts.Name, ts.StartTime, ts.EndTime, ts.IsActive, ts.CreatedBy)
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
	*ts = *fresh
	return nil
}

// Update overwrites the editable fields of a slot.  Existing bookings are
// unaffected because they hold a snapshot of the slot.
func (r *TimeSlotRepo) Update(ctx context.Context, ts *model.TimeSlot) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_slots SET name = ?, start_time = ?, end_time = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ts.Name, ts.StartTime, ts.EndTime, ts.IsActive, ts.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for "matched but unchanged" too; tell them apart.
		if _, err := r.GetByID(ctx, ts.ID); err != nil {
			return err
		}
	}
	fresh, err := r.GetByID(ctx, ts.ID)
	if err != nil {
		return err
	}
	*ts = *fresh
	return nil
}
