package model

import "time"

// TimeSlot is an entry of the slot catalog, e.g. "Morning Show" 09:00–12:00.
// Start and end are stored as zero-padded "HH:MM" strings.  The duration
// is derived from them and never persisted.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the slot.
//  StartTime – "HH:MM" start.
//  EndTime   – "HH:MM" end, after StartTime.
//  IsActive  – soft-disable flag; inactive slots are not offered.
//  CreatedBy – admin who created the slot.
type TimeSlot struct {
	ID        uint64    `json:"id"`        // time_slots.id
	Name      string    `json:"name"`      // time_slots.name
	StartTime string    `json:"startTime"` // time_slots.start_time
	EndTime   string    `json:"endTime"`   // time_slots.end_time
	IsActive  bool      `json:"isActive"`  // time_slots.is_active
	CreatedBy uint64    `json:"createdBy"` // time_slots.created_by
	CreatedAt time.Time `json:"createdAt"` // time_slots.created_at
	UpdatedAt time.Time `json:"updatedAt"` // time_slots.updated_at
}
