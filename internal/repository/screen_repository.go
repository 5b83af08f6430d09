package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ScreenRepo reads the screen directory.  Screens are maintained by the
// back office; the booking engine only needs lookups.
type ScreenRepo struct {
	db *sql.DB
}

// NewScreenRepo constructs a ScreenRepo with the given DB handle.
func NewScreenRepo(db *sql.DB) *ScreenRepo { return &ScreenRepo{db: db} }

const screenColumns = `id, location_id, name, capacity, price_per_hour, amenities, images, is_active, created_at, updated_at`

func scanScreen(s scanner) (model.Screen, error) {
	var sc model.Screen
	var amenities, images []byte
	if err := s.Scan(&sc.ID, &sc.LocationID, &sc.Name, &sc.Capacity, &sc.PricePerHour,
		&amenities, &images, &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return sc, err
	}
	if err := decodeJSON(amenities, &sc.Amenities); err != nil {
		return sc, err
	}
	if err := decodeJSON(images, &sc.Images); err != nil {
		return sc, err
	}
	if sc.Amenities == nil {
		sc.Amenities = []string{}
	}
	if sc.Images == nil {
		sc.Images = []string{}
	}
	return sc, nil
}

// GetByID returns a screen regardless of its active flag.  It returns
// ErrScreenNotFound when there is no matching row.
func (r *ScreenRepo) GetByID(ctx context.Context, id uint64) (*model.Screen, error) {
	sc, err := scanScreen(r.db.QueryRowContext(ctx,
		`SELECT `+screenColumns+` FROM screens WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return &sc, nil
}

// ListActiveByLocation returns the active screens of a location ordered by
// ID.  When screenID is non-zero only that screen is returned (if it is
// active and belongs to the location).  An unknown location yields an
// empty slice.
func (r *ScreenRepo) ListActiveByLocation(ctx context.Context, locationID, screenID uint64) ([]model.Screen, error) {
	q := `SELECT ` + screenColumns + ` FROM screens WHERE location_id = ? AND is_active = 1`
	args := []any{locationID}
	if screenID != 0 {
		q += ` AND id = ?`
		args = append(args, screenID)
	}
	q += ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screen, 0)
	for rows.Next() {
		sc, err := scanScreen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
