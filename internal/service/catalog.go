package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// CatalogSlot is a catalog entry with its derived duration.
type CatalogSlot struct {
	model.TimeSlot
	Duration float64 `json:"duration"`
}

func catalogSlot(ts model.TimeSlot) CatalogSlot {
	return CatalogSlot{TimeSlot: ts, Duration: SlotDuration(ts.StartTime, ts.EndTime)}
}

// TimeSlotInput creates a slot.  IsActive defaults to true.
type TimeSlotInput struct {
	Name      string
	StartTime string
	EndTime   string
	IsActive  *bool
}

// TimeSlotPatch updates a slot.  Nil fields are left untouched; setting
// IsActive to false removes the slot from availability without touching
// bookings, which keep their own snapshot.
type TimeSlotPatch struct {
	Name      *string
	StartTime *string
	EndTime   *string
	IsActive  *bool
}

// TimeSlotService maintains the slot catalog.
type TimeSlotService struct {
	slots TimeSlotStore
}

func NewTimeSlotService(slots TimeSlotStore) *TimeSlotService {
	return &TimeSlotService{slots: slots}
}

// List returns the catalog, or only active slots when activeOnly is set.
func (s *TimeSlotService) List(ctx context.Context, activeOnly bool) ([]CatalogSlot, error) {
	var (
		all []model.TimeSlot
		err error
	)
	if activeOnly {
		all, err = s.slots.ListActive(ctx)
	} else {
		all, err = s.slots.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	out := make([]CatalogSlot, 0, len(all))
	for _, ts := range all {
		out = append(out, catalogSlot(ts))
	}
	return out, nil
}

// Create adds a slot to the catalog.
func (s *TimeSlotService) Create(ctx context.Context, actor model.Actor, in TimeSlotInput) (*CatalogSlot, error) {
	fe := fieldErrors{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fe.add("name", "is required")
	}
	start, end := normalizeRange(in.StartTime, in.EndTime, fe, "")
	if err := fe.err("Invalid time slot"); err != nil {
		return nil, err
	}
	ts := &model.TimeSlot{Name: name, StartTime: start, EndTime: end, IsActive: true, CreatedBy: actor.ID}
	if in.IsActive != nil {
		ts.IsActive = *in.IsActive
	}
	if err := s.slots.Create(ctx, ts); err != nil {
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	out := catalogSlot(*ts)
	return &out, nil
}

// Update edits a catalog slot.
func (s *TimeSlotService) Update(ctx context.Context, id uint64, p TimeSlotPatch) (*CatalogSlot, error) {
	ts, err := s.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTimeSlotNotFound) {
			return nil, notFound("Time slot not found")
		}
		return nil, fmt.Errorf("get time slot: %w", err)
	}
	fe := fieldErrors{}
	if p.Name != nil {
		if n := strings.TrimSpace(*p.Name); n != "" {
			ts.Name = n
		} else {
			fe.add("name", "must not be empty")
		}
	}
	start, end := ts.StartTime, ts.EndTime
	if p.StartTime != nil {
		start = *p.StartTime
	}
	if p.EndTime != nil {
		end = *p.EndTime
	}
	ts.StartTime, ts.EndTime = normalizeRange(start, end, fe, "")
	if p.IsActive != nil {
		ts.IsActive = *p.IsActive
	}
	if err := fe.err("Invalid time slot"); err != nil {
		return nil, err
	}
	if err := s.slots.Update(ctx, ts); err != nil {
		if errors.Is(err, repository.ErrTimeSlotNotFound) {
			return nil, notFound("Time slot not found")
		}
		return nil, fmt.Errorf("update time slot: %w", err)
	}
	out := catalogSlot(*ts)
	return &out, nil
}
