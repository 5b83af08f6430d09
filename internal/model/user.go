package model

import "time"

// User represents an admin identity as stored in the `users` table.
// Assigned locations live in the `user_locations` join table and are
// loaded alongside the user.
//
// Fields:
//  ID                – primary key identifier of the user.
//  Username          – unique login name (lower case).
//  Email             – unique email address.
//  PasswordHash      – bcrypt hashed password.
//  Role              – super_admin or admin.
//  AssignedLocations – location IDs a scoped admin may manage.
//  IsActive          – inactive users cannot log in.
type User struct {
	ID                uint64    // users.id
	Username          string    // users.username
	Email             string    // users.email
	PasswordHash      string    // users.password_hash
	Role              string    // users.role
	AssignedLocations []uint64  // user_locations.location_id
	IsActive          bool      // users.is_active
	CreatedAt         time.Time // users.created_at
	UpdatedAt         time.Time // users.updated_at
}

// Actor converts the stored user into the request-scoped actor.
func (u User) Actor() Actor {
	return NewActor(u.ID, u.Role, u.AssignedLocations)
}
