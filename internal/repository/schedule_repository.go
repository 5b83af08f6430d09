package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ScheduleRepo persists event schedules.  The active-slot unique index
// allows one active schedule per (screen, date, time slot).
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// rowExists turns the error of a "SELECT 1 ... LIMIT 1" scan into a
// presence flag.
func rowExists(err error) (bool, error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// ActiveExists reports whether an active schedule already occupies the
// screen for the catalog slot on the given date.
func (r *ScheduleRepo) ActiveExists(ctx context.Context, screenID, timeSlotID uint64, date time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM event_schedules WHERE screen_id = ? AND time_slot_id = ? AND schedule_date = ? AND is_active = 1 LIMIT 1`,
		screenID, timeSlotID, dateArg(date)).Scan(&one)
	return rowExists(err)
}

// ActiveForSlotTimes reports whether an active schedule on the screen and
// date references a catalog slot with exactly the given start and end.
func (r *ScheduleRepo) ActiveForSlotTimes(ctx context.Context, screenID uint64, date time.Time, start, end string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM event_schedules es
		 JOIN time_slots ts ON ts.id = es.time_slot_id
		 WHERE es.screen_id = ? AND es.schedule_date = ? AND es.is_active = 1
		   AND ts.start_time = ? AND ts.end_time = ?
		 LIMIT 1`,
		screenID, dateArg(date), start, end).Scan(&one)
	return rowExists(err)
}

// CreateBatch inserts all schedules in one multi-row statement inside a
// transaction, so either every row is written or none is.  A unique
// violation (a concurrent generator claimed one of the slots) returns
// ErrConflict.  On success the generated IDs are assigned; InnoDB hands
// out consecutive IDs for a single multi-row insert.
func (r *ScheduleRepo) CreateBatch(ctx context.Context, items []model.EventSchedule) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	query := `INSERT INTO event_schedules (event_id, location_id, screen_id, time_slot_id, schedule_date, is_active, created_by) VALUES `
	args := make([]any, 0, len(items)*7)
	for i, s := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.EventID, s.LocationID, s.ScreenID, s.TimeSlotID, dateArg(s.Date), s.IsActive, s.CreatedBy)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	first, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapWriteErr(err)
	}
	committed = true
	now := time.Now().UTC()
	for i := range items {
		items[i].ID = uint64(first) + uint64(i)
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}
	return nil
}

// List returns active schedules joined with display names, ordered by
// date and slot start.
func (r *ScheduleRepo) List(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleDetail, error) {
	if f.LocationIDs != nil && len(f.LocationIDs) == 0 {
		return []model.ScheduleDetail{}, nil
	}
	q := `SELECT es.id, es.event_id, es.location_id, es.screen_id, es.time_slot_id, es.schedule_date,
	             es.is_active, es.created_by, es.created_at, es.updated_at,
	             COALESCE(e.name, ''), COALESCE(l.name, ''), COALESCE(s.name, ''),
	             COALESCE(ts.name, ''), COALESCE(ts.start_time, ''), COALESCE(ts.end_time, '')
	      FROM event_schedules es
	      LEFT JOIN events e ON e.id = es.event_id
	      LEFT JOIN locations l ON l.id = es.location_id
	      LEFT JOIN screens s ON s.id = es.screen_id
	      LEFT JOIN time_slots ts ON ts.id = es.time_slot_id
	      WHERE es.is_active = 1`
	var args []any
	if len(f.LocationIDs) > 0 {
		q += ` AND es.location_id IN (` + placeholders(len(f.LocationIDs)) + `)`
		args = append(args, uint64Args(f.LocationIDs)...)
	}
	if f.LocationID != 0 {
		q += ` AND es.location_id = ?`
		args = append(args, f.LocationID)
	}
	if f.Date != nil {
		q += ` AND es.schedule_date = ?`
		args = append(args, dateArg(*f.Date))
	}
	q += ` ORDER BY es.schedule_date ASC, ts.start_time ASC, es.screen_id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ScheduleDetail, 0)
	for rows.Next() {
		var d model.ScheduleDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.LocationID, &d.ScreenID, &d.TimeSlotID, &d.Date,
			&d.IsActive, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
			&d.EventName, &d.LocationName, &d.ScreenName, &d.SlotName, &d.StartTime, &d.EndTime); err != nil {
			return nil, err
		}
		d.Date = d.Date.UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
