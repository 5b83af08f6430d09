package service

import (
	"context"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ScreenStore is the read side of the screen directory.  Implemented by
// repository.ScreenRepo.
type ScreenStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Screen, error)
	ListActiveByLocation(ctx context.Context, locationID, screenID uint64) ([]model.Screen, error)
}

// TimeSlotStore is the slot catalog.  Implemented by repository.TimeSlotRepo.
type TimeSlotStore interface {
	List(ctx context.Context) ([]model.TimeSlot, error)
	ListActive(ctx context.Context) ([]model.TimeSlot, error)
	GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error)
	Create(ctx context.Context, ts *model.TimeSlot) error
	Update(ctx context.Context, ts *model.TimeSlot) error
}

// BookingStore persists bookings.  Create and Update must return
// repository.ErrConflict when a second confirmed booking would claim the
// same screen, date and slot.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	Update(ctx context.Context, b *model.Booking) error
	FindConfirmedMatch(ctx context.Context, screenID uint64, date time.Time, start, end string, excludeID uint64) (*model.Booking, error)
	ListConfirmedByLocationDate(ctx context.Context, locationID uint64, date time.Time) ([]model.Booking, error)
	BusyScreensOverlapping(ctx context.Context, locationID uint64, date time.Time, start, end string) (map[uint64]struct{}, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	CompleteBefore(ctx context.Context, day time.Time) (int64, error)
}

// ScheduleStore persists event schedules.  CreateBatch is all-or-nothing
// and returns repository.ErrConflict on a unique violation.
type ScheduleStore interface {
	ActiveExists(ctx context.Context, screenID, timeSlotID uint64, date time.Time) (bool, error)
	ActiveForSlotTimes(ctx context.Context, screenID uint64, date time.Time, start, end string) (bool, error)
	CreateBatch(ctx context.Context, items []model.EventSchedule) error
	List(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleDetail, error)
}

// Booking notification events.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
)

// Notifier delivers booking notifications.  Implementations should not
// block for long; callers ignore the returned error apart from logging.
type Notifier interface {
	Notify(ctx context.Context, event string, b model.Booking) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, model.Booking) error { return nil }
