package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// Conflict reasons reported by Generate.
const (
	ReasonScheduled = "Screen already scheduled for this slot"
	ReasonBooked    = "Screen has a confirmed booking for this slot"
)

// GenerateInput lists the dimensions to expand.  Every combination of
// event, location, screen, time slot and date is a candidate schedule.
type GenerateInput struct {
	Events    []uint64
	Locations []uint64
	Screens   []uint64
	TimeSlots []uint64
	Dates     []time.Time
}

// ScheduleConflict describes one candidate that was not created.
type ScheduleConflict struct {
	Event    uint64 `json:"event"`
	Location uint64 `json:"location"`
	Screen   uint64 `json:"screen"`
	TimeSlot uint64 `json:"timeSlot"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

// GenerateResult is the outcome of a bulk generation.  Created plus
// Conflicts equals the number of candidates whose screen belongs to the
// candidate location.
type GenerateResult struct {
	Created         int                   `json:"created"`
	Conflicts       int                   `json:"conflicts"`
	ConflictDetails []ScheduleConflict    `json:"conflictDetails"`
	Schedules       []model.EventSchedule `json:"-"`
}

// ScheduleService bulk-generates and lists event schedules.
type ScheduleService struct {
	schedules  ScheduleStore
	screens    ScreenStore
	slots      TimeSlotStore
	bookings   BookingStore
	crossCheck bool
}

// NewScheduleService wires the generator.  bookings is consulted only when
// crossCheck is on and may be nil otherwise.
func NewScheduleService(schedules ScheduleStore, screens ScreenStore, slots TimeSlotStore, bookings BookingStore, crossCheck bool) *ScheduleService {
	return &ScheduleService{schedules: schedules, screens: screens, slots: slots, bookings: bookings, crossCheck: crossCheck}
}

type scheduleKey struct {
	screen, slot uint64
	date         time.Time
}

// Generate expands the input in event, location, screen, time slot, date
// order.  Screens that do not belong to the location are skipped without
// a conflict entry.  Slots already held by an active schedule are
// reported.  Everything else is inserted in a single all-or-nothing batch.
//
// When nothing can be created the result is returned together with
// ErrNoValidSchedules so the caller can still show the conflicts.
func (s *ScheduleService) Generate(ctx context.Context, actor model.Actor, in GenerateInput) (*GenerateResult, error) {
	fe := fieldErrors{}
	if len(in.Events) == 0 {
		fe.add("events", "must not be empty")
	}
	if len(in.Locations) == 0 {
		fe.add("locations", "must not be empty")
	}
	if len(in.Screens) == 0 {
		fe.add("screens", "must not be empty")
	}
	if len(in.TimeSlots) == 0 {
		fe.add("timeSlots", "must not be empty")
	}
	if len(in.Dates) == 0 {
		fe.add("dates", "must not be empty")
	}
	if err := fe.err("Events, locations, screens, timeSlots and dates are required"); err != nil {
		return nil, err
	}
	for _, loc := range in.Locations {
		if !actor.CanAccessLocation(loc) {
			return nil, forbidden(fmt.Sprintf("Not authorized for location %d", loc))
		}
	}

	slots := make(map[uint64]*model.TimeSlot, len(in.TimeSlots))
	for _, id := range in.TimeSlots {
		if _, ok := slots[id]; ok {
			continue
		}
		ts, err := s.slots.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrTimeSlotNotFound) {
				return nil, invalid("timeSlots", fmt.Sprintf("Unknown time slot %d", id))
			}
			return nil, fmt.Errorf("get time slot: %w", err)
		}
		slots[id] = ts
	}

	screens := make(map[uint64]*model.Screen, len(in.Screens))
	screenFor := func(id uint64) (*model.Screen, error) {
		if sc, ok := screens[id]; ok {
			return sc, nil
		}
		sc, err := s.screens.GetByID(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrScreenNotFound) {
			return nil, err
		}
		screens[id] = sc // nil for unknown screens
		return sc, nil
	}

	res := &GenerateResult{ConflictDetails: []ScheduleConflict{}}
	staged := make(map[scheduleKey]struct{})
	var batch []model.EventSchedule

	for _, ev := range in.Events {
		for _, loc := range in.Locations {
			for _, scID := range in.Screens {
				sc, err := screenFor(scID)
				if err != nil {
					return nil, fmt.Errorf("get screen: %w", err)
				}
				if sc == nil || sc.LocationID != loc {
					continue
				}
				for _, slotID := range in.TimeSlots {
					ts := slots[slotID]
					for _, d := range in.Dates {
						date := DateOnly(d)
						key := scheduleKey{sc.ID, slotID, date}
						reason, err := s.blocked(ctx, key, ts, staged)
						if err != nil {
							return nil, err
						}
						if reason != "" {
							res.ConflictDetails = append(res.ConflictDetails, ScheduleConflict{
								Event: ev, Location: loc, Screen: sc.ID, TimeSlot: slotID,
								Date: date.Format(time.DateOnly), Reason: reason,
							})
							continue
						}
						staged[key] = struct{}{}
						batch = append(batch, model.EventSchedule{
							EventID: ev, LocationID: loc, ScreenID: sc.ID, TimeSlotID: slotID,
							Date: date, IsActive: true, CreatedBy: actor.ID,
						})
					}
				}
			}
		}
	}
	res.Conflicts = len(res.ConflictDetails)

	if len(batch) == 0 {
		return res, &Error{Kind: ErrNoValidSchedules, Message: "No valid schedules to create"}
	}
	if err := s.schedules.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("Some schedules conflict with existing ones")
		}
		return nil, fmt.Errorf("create schedules: %w", err)
	}
	res.Created = len(batch)
	res.Schedules = batch
	log.WithFields(log.Fields{"created": res.Created, "conflicts": res.Conflicts, "actor": actor.ID}).Info("schedules generated")
	return res, nil
}

// blocked returns the conflict reason for a candidate, or "" when it can
// be staged.  A candidate repeated within the same request counts as
// already scheduled.
func (s *ScheduleService) blocked(ctx context.Context, key scheduleKey, ts *model.TimeSlot, staged map[scheduleKey]struct{}) (string, error) {
	if _, dup := staged[key]; dup {
		return ReasonScheduled, nil
	}
	exists, err := s.schedules.ActiveExists(ctx, key.screen, key.slot, key.date)
	if err != nil {
		return "", fmt.Errorf("schedule check: %w", err)
	}
	if exists {
		return ReasonScheduled, nil
	}
	if s.crossCheck && s.bookings != nil {
		b, err := s.bookings.FindConfirmedMatch(ctx, key.screen, key.date, ts.StartTime, ts.EndTime, 0)
		if err != nil {
			return "", fmt.Errorf("booking check: %w", err)
		}
		if b != nil {
			return ReasonBooked, nil
		}
	}
	return "", nil
}

// List returns active schedules, optionally for one location and date,
// restricted to the actor's locations.
func (s *ScheduleService) List(ctx context.Context, actor model.Actor, locationID uint64, date *time.Time) ([]model.ScheduleDetail, error) {
	if locationID != 0 && !actor.CanAccessLocation(locationID) {
		return nil, forbidden("Not authorized for this location")
	}
	f := model.ScheduleFilter{LocationIDs: actor.LocationIDs(), LocationID: locationID}
	if date != nil {
		d := DateOnly(*date)
		f.Date = &d
	}
	out, err := s.schedules.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}
