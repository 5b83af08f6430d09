// Package testfixtures provides an in-memory implementation of the
// service store interfaces.  It enforces the same uniqueness rules as the
// MySQL schema (one confirmed booking per screen/date/slot times, one
// active schedule per screen/date/time slot) so that service and handler
// tests exercise the conflict paths without a database.
package testfixtures

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// DB is the shared in-memory state.  The Screens, Slots, Bookings and
// Schedules views implement the individual store interfaces.
type DB struct {
	mu        sync.Mutex
	screens   map[uint64]model.Screen
	slots     map[uint64]model.TimeSlot
	bookings  map[uint64]model.Booking
	schedules map[uint64]model.EventSchedule
	nextID    uint64

	// Hooks let tests inject failures or simulate races.  BeforeCreate
	// runs inside Bookings.Create before the unique check.
	BeforeCreate func(b *model.Booking)
	FailCreate   error

	Screens   *Screens
	Slots     *Slots
	Bookings  *Bookings
	Schedules *Schedules
}

func New() *DB {
	db := &DB{
		screens:   map[uint64]model.Screen{},
		slots:     map[uint64]model.TimeSlot{},
		bookings:  map[uint64]model.Booking{},
		schedules: map[uint64]model.EventSchedule{},
	}
	db.Screens = &Screens{db}
	db.Slots = &Slots{db}
	db.Bookings = &Bookings{db}
	db.Schedules = &Schedules{db}
	return db
}

func (db *DB) id() uint64 {
	db.nextID++
	return db.nextID
}

// AddScreen registers an active screen and returns it.
func (db *DB) AddScreen(locationID uint64, name string, pricePerHour float64) model.Screen {
	db.mu.Lock()
	defer db.mu.Unlock()
	sc := model.Screen{ID: db.id(), LocationID: locationID, Name: name, PricePerHour: pricePerHour,
		Capacity: 20, Amenities: []string{}, Images: []string{}, IsActive: true}
	db.screens[sc.ID] = sc
	return sc
}

// AddSlot registers an active catalog slot and returns it.
func (db *DB) AddSlot(name, start, end string) model.TimeSlot {
	db.mu.Lock()
	defer db.mu.Unlock()
	ts := model.TimeSlot{ID: db.id(), Name: name, StartTime: start, EndTime: end, IsActive: true}
	db.slots[ts.ID] = ts
	return ts
}

// PutBooking stores b as-is, bypassing the unique check.  Use it to seed
// state.
func (db *DB) PutBooking(b model.Booking) model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b.ID == 0 {
		b.ID = db.id()
	}
	db.bookings[b.ID] = b
	return b
}

// AllSchedules returns every stored schedule ordered by ID.
func (db *DB) AllSchedules() []model.EventSchedule {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.EventSchedule, 0, len(db.schedules))
	for _, s := range db.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConfirmedCount counts confirmed bookings for a screen, date and slot.
func (db *DB) ConfirmedCount(screenID uint64, date time.Time, start, end string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, b := range db.bookings {
		if b.BookingStatus == model.BookingConfirmed && sameSlot(b, screenID, date, start, end) {
			n++
		}
	}
	return n
}

func sameSlot(b model.Booking, screenID uint64, date time.Time, start, end string) bool {
	return b.ScreenID == screenID && b.BookingDate.Equal(date) && b.TimeSlot.StartTime == start && b.TimeSlot.EndTime == end
}

// Screens implements service.ScreenStore.
type Screens struct{ db *DB }

func (s *Screens) GetByID(_ context.Context, id uint64) (*model.Screen, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.screens[id]
	if !ok {
		return nil, repository.ErrScreenNotFound
	}
	return &sc, nil
}

func (s *Screens) ListActiveByLocation(_ context.Context, locationID, screenID uint64) ([]model.Screen, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Screen, 0)
	for _, sc := range s.db.screens {
		if sc.LocationID == locationID && sc.IsActive && (screenID == 0 || sc.ID == screenID) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Slots implements service.TimeSlotStore.
type Slots struct{ db *DB }

func (s *Slots) sorted(activeOnly bool) []model.TimeSlot {
	out := make([]model.TimeSlot, 0, len(s.db.slots))
	for _, ts := range s.db.slots {
		if !activeOnly || ts.IsActive {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		if out[i].EndTime != out[j].EndTime {
			return out[i].EndTime < out[j].EndTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Slots) List(context.Context) ([]model.TimeSlot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.sorted(false), nil
}

func (s *Slots) ListActive(context.Context) ([]model.TimeSlot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.sorted(true), nil
}

func (s *Slots) GetByID(_ context.Context, id uint64) (*model.TimeSlot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ts, ok := s.db.slots[id]
	if !ok {
		return nil, repository.ErrTimeSlotNotFound
	}
	return &ts, nil
}

func (s *Slots) Create(_ context.Context, ts *model.TimeSlot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ts.ID = s.db.id()
	ts.CreatedAt = time.Now().UTC()
	ts.UpdatedAt = ts.CreatedAt
	s.db.slots[ts.ID] = *ts
	return nil
}

func (s *Slots) Update(_ context.Context, ts *model.TimeSlot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.slots[ts.ID]; !ok {
		return repository.ErrTimeSlotNotFound
	}
	ts.UpdatedAt = time.Now().UTC()
	s.db.slots[ts.ID] = *ts
	return nil
}

// Bookings implements service.BookingStore.
type Bookings struct{ db *DB }

// violates reports whether storing b would break the confirmed-slot
// unique index.
func (s *Bookings) violates(b *model.Booking) bool {
	if b.BookingStatus != model.BookingConfirmed {
		return false
	}
	for id, other := range s.db.bookings {
		if id != b.ID && other.BookingStatus == model.BookingConfirmed &&
			sameSlot(other, b.ScreenID, b.BookingDate, b.TimeSlot.StartTime, b.TimeSlot.EndTime) {
			return true
		}
	}
	return false
}

func (s *Bookings) Create(_ context.Context, b *model.Booking) error {
	if s.db.BeforeCreate != nil {
		s.db.BeforeCreate(b)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.FailCreate != nil {
		return s.db.FailCreate
	}
	if s.violates(b) {
		return repository.ErrConflict
	}
	for _, other := range s.db.bookings {
		if other.BookingID == b.BookingID {
			return repository.ErrConflict
		}
	}
	b.ID = s.db.id()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	s.db.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (s *Bookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	b = cloneBooking(b)
	return &b, nil
}

func (s *Bookings) Update(_ context.Context, b *model.Booking) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.bookings[b.ID]; !ok {
		return repository.ErrBookingNotFound
	}
	if s.violates(b) {
		return repository.ErrConflict
	}
	b.UpdatedAt = time.Now().UTC()
	s.db.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (s *Bookings) FindConfirmedMatch(_ context.Context, screenID uint64, date time.Time, start, end string, excludeID uint64) (*model.Booking, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, b := range s.db.bookings {
		if id != excludeID && b.BookingStatus == model.BookingConfirmed && sameSlot(b, screenID, date, start, end) {
			b = cloneBooking(b)
			return &b, nil
		}
	}
	return nil, nil
}

func (s *Bookings) ListConfirmedByLocationDate(_ context.Context, locationID uint64, date time.Time) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.LocationID == locationID && b.BookingDate.Equal(date) && b.BookingStatus == model.BookingConfirmed
	}), nil
}

func (s *Bookings) BusyScreensOverlapping(_ context.Context, locationID uint64, date time.Time, start, end string) (map[uint64]struct{}, error) {
	busy := map[uint64]struct{}{}
	for _, b := range s.filter(func(b model.Booking) bool {
		return b.LocationID == locationID && b.BookingDate.Equal(date) && b.BookingStatus == model.BookingConfirmed &&
			!(b.TimeSlot.EndTime <= start || b.TimeSlot.StartTime >= end)
	}) {
		busy[b.ScreenID] = struct{}{}
	}
	return busy, nil
}

func (s *Bookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	if f.LocationIDs != nil && len(f.LocationIDs) == 0 {
		return []model.Booking{}, nil
	}
	return s.filter(func(b model.Booking) bool {
		switch {
		case len(f.LocationIDs) > 0 && !slices.Contains(f.LocationIDs, b.LocationID):
			return false
		case f.LocationID != 0 && b.LocationID != f.LocationID:
			return false
		case f.ScreenID != 0 && b.ScreenID != f.ScreenID:
			return false
		case f.Status != "" && b.BookingStatus != f.Status:
			return false
		case f.StartDate != nil && b.BookingDate.Before(*f.StartDate):
			return false
		case f.EndDate != nil && b.BookingDate.After(*f.EndDate):
			return false
		}
		return true
	}), nil
}

func (s *Bookings) CompleteBefore(_ context.Context, day time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, b := range s.db.bookings {
		if b.BookingStatus == model.BookingConfirmed && b.BookingDate.Before(day) {
			b.BookingStatus = model.BookingCompleted
			s.db.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (s *Bookings) filter(keep func(model.Booking) bool) []model.Booking {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range s.db.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneBooking(b model.Booking) model.Booking {
	b.Pricing.AdditionalCharges = slices.Clone(b.Pricing.AdditionalCharges)
	if b.Cancellation != nil {
		c := *b.Cancellation
		b.Cancellation = &c
	}
	return b
}

// Schedules implements service.ScheduleStore.
type Schedules struct{ db *DB }

func (s *Schedules) ActiveExists(_ context.Context, screenID, timeSlotID uint64, date time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, es := range s.db.schedules {
		if es.IsActive && es.ScreenID == screenID && es.TimeSlotID == timeSlotID && es.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Schedules) ActiveForSlotTimes(_ context.Context, screenID uint64, date time.Time, start, end string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, es := range s.db.schedules {
		ts, ok := s.db.slots[es.TimeSlotID]
		if ok && es.IsActive && es.ScreenID == screenID && es.Date.Equal(date) && ts.StartTime == start && ts.EndTime == end {
			return true, nil
		}
	}
	return false, nil
}

// CreateBatch is all-or-nothing, like the transactional MySQL insert.
func (s *Schedules) CreateBatch(_ context.Context, items []model.EventSchedule) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	type key struct {
		screen, slot uint64
		date         time.Time
	}
	seen := map[key]bool{}
	for _, es := range s.db.schedules {
		if es.IsActive {
			seen[key{es.ScreenID, es.TimeSlotID, es.Date}] = true
		}
	}
	for _, it := range items {
		k := key{it.ScreenID, it.TimeSlotID, it.Date}
		if it.IsActive && seen[k] {
			return repository.ErrConflict
		}
		seen[k] = it.IsActive
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].ID = s.db.id()
		items[i].CreatedAt, items[i].UpdatedAt = now, now
		s.db.schedules[items[i].ID] = items[i]
	}
	return nil
}

func (s *Schedules) List(_ context.Context, f model.ScheduleFilter) ([]model.ScheduleDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.ScheduleDetail, 0)
	if f.LocationIDs != nil && len(f.LocationIDs) == 0 {
		return out, nil
	}
	for _, es := range s.db.schedules {
		switch {
		case !es.IsActive:
			continue
		case len(f.LocationIDs) > 0 && !slices.Contains(f.LocationIDs, es.LocationID):
			continue
		case f.LocationID != 0 && es.LocationID != f.LocationID:
			continue
		case f.Date != nil && !es.Date.Equal(*f.Date):
			continue
		}
		d := model.ScheduleDetail{EventSchedule: es}
		if sc, ok := s.db.screens[es.ScreenID]; ok {
			d.ScreenName = sc.Name
		}
		if ts, ok := s.db.slots[es.TimeSlotID]; ok {
			d.SlotName, d.StartTime, d.EndTime = ts.Name, ts.StartTime, ts.EndTime
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
