package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// BookedSlot is a catalog slot held by a confirmed booking.
type BookedSlot struct {
	SlotView
	Booking      uint64 `json:"booking"`
	BookingID    string `json:"bookingId"`
	CustomerName string `json:"customerName"`
}

// ScreenAvailability splits the slot catalog of one screen into free and
// booked slots for a date.
type ScreenAvailability struct {
	Screen         model.Screen `json:"screen"`
	AvailableSlots []SlotView   `json:"availableSlots"`
	BookedSlots    []BookedSlot `json:"bookedSlots"`
}

// AvailabilityService answers "which slots of which screens are free".
// Every method is a pure read.
type AvailabilityService struct {
	screens  ScreenStore
	slots    TimeSlotStore
	bookings BookingStore
}

func NewAvailabilityService(screens ScreenStore, slots TimeSlotStore, bookings BookingStore) *AvailabilityService {
	return &AvailabilityService{screens: screens, slots: slots, bookings: bookings}
}

type slotKey struct {
	screen     uint64
	start, end string
}

// Check returns per-screen availability for a location and date.  A slot
// is booked when a confirmed booking on the same screen has exactly the
// same start and end; partial overlaps do not count.  An unknown location
// yields an empty list.  screenID, when non-zero, narrows to one screen.
func (s *AvailabilityService) Check(ctx context.Context, locationID uint64, date time.Time, screenID uint64) ([]ScreenAvailability, error) {
	fe := fieldErrors{}
	if locationID == 0 {
		fe.add("location", "is required")
	}
	if date.IsZero() {
		fe.add("date", "is required")
	}
	if err := fe.err("Location and date are required"); err != nil {
		return nil, err
	}
	date = DateOnly(date)

	screens, err := s.screens.ListActiveByLocation(ctx, locationID, screenID)
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}
	out := make([]ScreenAvailability, 0, len(screens))
	if len(screens) == 0 {
		return out, nil
	}
	catalog, err := s.slots.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	confirmed, err := s.bookings.ListConfirmedByLocationDate(ctx, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	held := make(map[slotKey]model.Booking, len(confirmed))
	for _, b := range confirmed {
		held[slotKey{b.ScreenID, b.TimeSlot.StartTime, b.TimeSlot.EndTime}] = b
	}

	for _, sc := range screens {
		sa := ScreenAvailability{Screen: sc, AvailableSlots: []SlotView{}, BookedSlots: []BookedSlot{}}
		for _, ts := range catalog {
			v := NewSlotView(ts)
			if b, ok := held[slotKey{sc.ID, ts.StartTime, ts.EndTime}]; ok {
				sa.BookedSlots = append(sa.BookedSlots, BookedSlot{
					SlotView:     v,
					Booking:      b.ID,
					BookingID:    b.BookingID,
					CustomerName: b.CustomerInfo.Name,
				})
				continue
			}
			sa.AvailableSlots = append(sa.AvailableSlots, v)
		}
		out = append(out, sa)
	}
	return out, nil
}

// SlotsForScreen returns the free catalog slots of a single active screen.
func (s *AvailabilityService) SlotsForScreen(ctx context.Context, screenID uint64, date time.Time) ([]SlotView, error) {
	fe := fieldErrors{}
	if screenID == 0 {
		fe.add("screen", "is required")
	}
	if date.IsZero() {
		fe.add("date", "is required")
	}
	if err := fe.err("Screen and date are required"); err != nil {
		return nil, err
	}
	sc, err := s.screens.GetByID(ctx, screenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return nil, notFound("Screen not found")
		}
		return nil, err
	}
	if !sc.IsActive {
		return nil, notFound("Screen not found")
	}
	res, err := s.Check(ctx, sc.LocationID, date, sc.ID)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []SlotView{}, nil
	}
	return res[0].AvailableSlots, nil
}

// FreeScreens lists the active screens of a location with no confirmed
// booking overlapping [start, end) on the date.  Unlike Check this uses
// partial overlap, since the window is arbitrary rather than a catalog slot.
func (s *AvailabilityService) FreeScreens(ctx context.Context, actor model.Actor, locationID uint64, date time.Time, start, end string) ([]model.Screen, error) {
	fe := fieldErrors{}
	if locationID == 0 {
		fe.add("location", "is required")
	}
	if date.IsZero() {
		fe.add("date", "is required")
	}
	start, end = normalizeRange(start, end, fe, "")
	if err := fe.err("Invalid screen availability query"); err != nil {
		return nil, err
	}
	if !actor.CanAccessLocation(locationID) {
		return nil, forbidden("Not authorized for this location")
	}
	screens, err := s.screens.ListActiveByLocation(ctx, locationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}
	busy, err := s.bookings.BusyScreensOverlapping(ctx, locationID, DateOnly(date), start, end)
	if err != nil {
		return nil, fmt.Errorf("busy screens: %w", err)
	}
	out := make([]model.Screen, 0, len(screens))
	for _, sc := range screens {
		if _, taken := busy[sc.ID]; !taken {
			out = append(out, sc)
		}
	}
	return out, nil
}
