package model

import "time"

// Screen is a bookable private theatre room.  A screen belongs to exactly
// one location; the pair (screen, location) is its bookable identity.
//
// Fields:
//  ID           – primary key identifier.
//  LocationID   – owning location.
//  Name         – display name.
//  Capacity     – maximum number of guests.
//  PricePerHour – hourly rate used to price bookings server side.
//  Amenities    – list of amenity labels shown in the booking flow.
//  Images       – image URLs (stored externally).
//  IsActive     – inactive screens are never offered.
type Screen struct {
	ID           uint64    `json:"id"`           // screens.id
	LocationID   uint64    `json:"location"`     // screens.location_id
	Name         string    `json:"name"`         // screens.name
	Capacity     uint32    `json:"capacity"`     // screens.capacity
	PricePerHour float64   `json:"pricePerHour"` // screens.price_per_hour
	Amenities    []string  `json:"amenities"`    // screens.amenities (JSON)
	Images       []string  `json:"images"`       // screens.images (JSON)
	IsActive     bool      `json:"isActive"`     // screens.is_active
	CreatedAt    time.Time `json:"createdAt"`    // screens.created_at
	UpdatedAt    time.Time `json:"updatedAt"`    // screens.updated_at
}
