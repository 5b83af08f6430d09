package model

import "time"

// EventSchedule assigns an event to a screen for a catalog slot on a date.
// At most one active schedule may exist per (screen, date, time slot).
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – scheduled event (package).
//  LocationID – location of the screen.
//  ScreenID   – screen being programmed.
//  TimeSlotID – catalog slot reference.
//  Date       – calendar date (UTC midnight).
//  IsActive   – only active schedules block the slot.
//  CreatedBy  – admin who generated the schedule.
type EventSchedule struct {
	ID         uint64    `json:"id"`        // event_schedules.id
	EventID    uint64    `json:"event"`     // event_schedules.event_id
	LocationID uint64    `json:"location"`  // event_schedules.location_id
	ScreenID   uint64    `json:"screen"`    // event_schedules.screen_id
	TimeSlotID uint64    `json:"timeSlot"`  // event_schedules.time_slot_id
	Date       time.Time `json:"date"`      // event_schedules.schedule_date
	IsActive   bool      `json:"isActive"`  // event_schedules.is_active
	CreatedBy  uint64    `json:"createdBy"` // event_schedules.created_by
	CreatedAt  time.Time `json:"createdAt"` // event_schedules.created_at
	UpdatedAt  time.Time `json:"updatedAt"` // event_schedules.updated_at
}

// ScheduleDetail is a schedule joined with the display names of the
// referenced rows.  It is returned by listing endpoints.
type ScheduleDetail struct {
	EventSchedule
	EventName    string `json:"eventName"`
	LocationName string `json:"locationName"`
	ScreenName   string `json:"screenName"`
	SlotName     string `json:"slotName"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

// ScheduleFilter narrows schedule listings.  LocationIDs applies admin
// scoping the same way as BookingFilter.
type ScheduleFilter struct {
	LocationIDs []uint64
	LocationID  uint64
	Date        *time.Time
}
