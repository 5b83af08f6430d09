package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

// UserRepo stores admin accounts and their location assignments.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUserExists is returned when the username or email is already taken.
var ErrUserExists = errors.New("user already exists")

// Create hashes the password, inserts the user and its location
// assignments in one transaction and returns the new ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, is_active) VALUES (?,?,?,?,1)",
		normalizeLogin(u.Username), normalizeLogin(u.Email), hash, u.Role)
	if err != nil {
		if IsDuplicateKey(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := assignLocations(ctx, tx, uint64(id), u.AssignedLocations); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	u.ID = uint64(id)
	u.PasswordHash = hash
	return u.ID, nil
}

// GetByUsername fetches an active or inactive user by login name together
// with its assigned locations.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		normalizeLogin(username)).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	locs, err := userLocations(ctx, r.DB, u.ID)
	if err != nil {
		return nil, err
	}
	u.AssignedLocations = locs
	return &u, nil
}

func userLocations(ctx context.Context, q querier, userID uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT location_id FROM user_locations WHERE user_id=? ORDER BY location_id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func assignLocations(ctx context.Context, q querier, userID uint64, locations []uint64) error {
	if len(locations) == 0 {
		return nil
	}
	stmt := "INSERT INTO user_locations (user_id, location_id) VALUES "
	args := make([]any, 0, len(locations)*2)
	for i, loc := range locations {
		if i > 0 {
			stmt += ","
		}
		stmt += "(?, ?)"
		args = append(args, userID, loc)
	}
	_, err := q.ExecContext(ctx, stmt, args...)
	return err
}

func normalizeLogin(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
