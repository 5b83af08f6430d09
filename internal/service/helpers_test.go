package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/testfixtures"
)

var (
	superAdmin = model.NewActor(1, model.RoleSuperAdmin, nil)
	june1      = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

// recordingNotifier captures events and can be told to fail.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ model.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type fixture struct {
	db       *testfixtures.DB
	notifier *recordingNotifier
	bookings *BookingService
	avail    *AvailabilityService
	sched    *ScheduleService
}

func newFixture(t *testing.T, opts ...BookingOption) *fixture {
	t.Helper()
	db := testfixtures.New()
	n := &recordingNotifier{}
	opts = append([]BookingOption{WithNotifier(n)}, opts...)
	return &fixture{
		db:       db,
		notifier: n,
		bookings: NewBookingService(db.Bookings, db.Screens, db.Schedules, opts...),
		avail:    NewAvailabilityService(db.Screens, db.Slots, db.Bookings),
		sched:    NewScheduleService(db.Schedules, db.Screens, db.Slots, db.Bookings, false),
	}
}

func bookingInput(screen model.Screen, date time.Time, start, end string) CreateBookingInput {
	return CreateBookingInput{
		CustomerInfo: model.CustomerInfo{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
		ScreenID:     screen.ID,
		LocationID:   screen.LocationID,
		BookingDate:  date,
		TimeSlot:     SlotInput{Name: "Slot", StartTime: start, EndTime: end, Duration: 3},
		EventType:    "birthday",
	}
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("got error %v, want %v", err, kind)
	}
}

func wantValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if field != "" {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("validation fields %v missing %q", ve.Fields, field)
		}
	}
}
