package model

import "slices"

// Admin roles as stored in users.role and carried in the JWT role claim.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

// Actor is the authenticated caller of an admin operation.  It is built
// once by the authentication middleware; everything downstream treats the
// assigned locations as a plain identifier set.
type Actor struct {
	ID        uint64
	Role      string
	Locations map[uint64]struct{}
}

// NewActor builds an actor from a role and its assigned location IDs.
func NewActor(id uint64, role string, locationIDs []uint64) Actor {
	locs := make(map[uint64]struct{}, len(locationIDs))
	for _, l := range locationIDs {
		locs[l] = struct{}{}
	}
	return Actor{ID: id, Role: role, Locations: locs}
}

// IsSuperAdmin reports whether the actor has unrestricted location access.
func (a Actor) IsSuperAdmin() bool { return a.Role == RoleSuperAdmin }

// CanAccessLocation is the single capability check used by every guarded
// operation.  Super admins bypass the location set.
func (a Actor) CanAccessLocation(locationID uint64) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if a.Role != RoleAdmin {
		return false
	}
	_, ok := a.Locations[locationID]
	return ok
}

// LocationIDs returns the assigned location IDs, or nil for super admins.
func (a Actor) LocationIDs() []uint64 {
	if a.IsSuperAdmin() {
		return nil
	}
	out := make([]uint64, 0, len(a.Locations))
	for id := range a.Locations {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
