package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

func TestGenerate_ScreenOutsideLocationSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.db.AddScreen(2, "S1", 500) // belongs to L2
	t1 := f.db.AddSlot("T1", "09:00", "12:00")

	res, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s1.ID},
		TimeSlots: []uint64{t1.ID}, Dates: []time.Time{june1},
	})
	wantKind(t, err, ErrNoValidSchedules)
	if res == nil || res.Created != 0 || res.Conflicts != 0 || len(res.ConflictDetails) != 0 {
		t.Fatalf("result %+v", res)
	}
	if len(f.db.AllSchedules()) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestGenerate_ExistingScheduleReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.db.AddScreen(1, "S1", 500)
	t1 := f.db.AddSlot("T1", "09:00", "12:00")
	t2 := f.db.AddSlot("T2", "13:00", "16:00")
	d2 := june1.AddDate(0, 0, 1)

	if _, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s1.ID},
		TimeSlots: []uint64{t1.ID}, Dates: []time.Time{june1},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{2}, Locations: []uint64{1}, Screens: []uint64{s1.ID},
		TimeSlots: []uint64{t1.ID, t2.ID}, Dates: []time.Time{june1, d2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 3 || res.Conflicts != 1 {
		t.Fatalf("created=%d conflicts=%d", res.Created, res.Conflicts)
	}
	c := res.ConflictDetails[0]
	if c.Screen != s1.ID || c.TimeSlot != t1.ID || c.Date != "2025-06-01" || c.Reason != ReasonScheduled || c.Event != 2 {
		t.Fatalf("conflict detail %+v", c)
	}
	if n := len(f.db.AllSchedules()); n != 4 {
		t.Fatalf("stored %d schedules, want 4", n)
	}
}

func TestGenerate_Accounting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a1 := f.db.AddScreen(1, "A1", 500)
	a2 := f.db.AddScreen(1, "A2", 500)
	b1 := f.db.AddScreen(2, "B1", 500)
	t1 := f.db.AddSlot("T1", "09:00", "12:00")
	t2 := f.db.AddSlot("T2", "13:00", "16:00")
	dates := []time.Time{june1, june1.AddDate(0, 0, 1)}

	in := GenerateInput{
		Events: []uint64{7}, Locations: []uint64{1, 2}, Screens: []uint64{a1.ID, a2.ID, b1.ID, 999},
		TimeSlots: []uint64{t1.ID, t2.ID}, Dates: dates,
	}
	// Valid screen/location pairs: (1,a1) (1,a2) (2,b1) => 3 * 2 slots * 2 dates.
	const valid = 12
	res, err := f.sched.Generate(ctx, superAdmin, in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created+res.Conflicts != valid || res.Created != valid {
		t.Fatalf("first run created=%d conflicts=%d", res.Created, res.Conflicts)
	}

	in.Events = []uint64{8}
	res, err = f.sched.Generate(ctx, superAdmin, in)
	wantKind(t, err, ErrNoValidSchedules)
	if res.Created+res.Conflicts != valid || res.Conflicts != valid {
		t.Fatalf("second run created=%d conflicts=%d", res.Created, res.Conflicts)
	}
}

func TestGenerate_DuplicateWithinRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.db.AddScreen(1, "S", 500)
	ts := f.db.AddSlot("T", "09:00", "12:00")
	res, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1, 2}, Locations: []uint64{1}, Screens: []uint64{s.ID},
		TimeSlots: []uint64{ts.ID}, Dates: []time.Time{june1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 || res.Conflicts != 1 || res.ConflictDetails[0].Event != 2 {
		t.Fatalf("result %+v", res)
	}
}

func TestGenerate_ValidationAndPermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.db.AddScreen(1, "S", 500)
	ts := f.db.AddSlot("T", "09:00", "12:00")
	full := GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s.ID},
		TimeSlots: []uint64{ts.ID}, Dates: []time.Time{june1},
	}

	missing := full
	missing.Dates = nil
	_, err := f.sched.Generate(ctx, superAdmin, missing)
	wantValidation(t, err, "dates")

	unknownSlot := full
	unknownSlot.TimeSlots = []uint64{777}
	_, err = f.sched.Generate(ctx, superAdmin, unknownSlot)
	wantValidation(t, err, "timeSlots")

	scoped := model.NewActor(4, model.RoleAdmin, []uint64{2})
	_, err = f.sched.Generate(ctx, scoped, full)
	wantKind(t, err, ErrForbidden)
	if len(f.db.AllSchedules()) != 0 {
		t.Fatal("forbidden request must not write")
	}
}

// racingSchedules reports every slot free but rejects the insert, as the
// unique index does when a concurrent generator commits first.
type racingSchedules struct{ ScheduleStore }

func (racingSchedules) ActiveExists(context.Context, uint64, uint64, time.Time) (bool, error) {
	return false, nil
}

func (racingSchedules) CreateBatch(context.Context, []model.EventSchedule) error {
	return repository.ErrConflict
}

func TestGenerate_UnknownTimeSlotRejectsWholeRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.db.AddScreen(1, "S1", 500)
	t1 := f.db.AddSlot("T1", "09:00", "12:00")

	res, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s1.ID},
		TimeSlots: []uint64{t1.ID, 4242}, Dates: []time.Time{june1},
	})
	wantValidation(t, err, "timeSlots")
	if res != nil {
		t.Fatalf("no partial result expected, got %+v", res)
	}
	if n := len(f.db.AllSchedules()); n != 0 {
		t.Fatalf("valid slots must not be inserted alongside an unknown one, got %d", n)
	}
}

func TestGenerate_BatchConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.db.AddScreen(1, "S", 500)
	ts := f.db.AddSlot("T", "09:00", "12:00")
	svc := NewScheduleService(racingSchedules{f.db.Schedules}, f.db.Screens, f.db.Slots, nil, false)
	_, err := svc.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s.ID},
		TimeSlots: []uint64{ts.ID}, Dates: []time.Time{june1},
	})
	wantKind(t, err, ErrConflict)
	var se *Error
	if !errors.As(err, &se) || se.Message != "Some schedules conflict with existing ones" {
		t.Fatalf("got %v", err)
	}
}

func TestGenerate_BookingCrossCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.db.AddScreen(1, "S", 500)
	ts := f.db.AddSlot("T", "09:00", "12:00")
	if _, err := f.bookings.Create(ctx, superAdmin, bookingInput(s, june1, "09:00", "12:00")); err != nil {
		t.Fatal(err)
	}
	svc := NewScheduleService(f.db.Schedules, f.db.Screens, f.db.Slots, f.db.Bookings, true)
	res, err := svc.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1}, Screens: []uint64{s.ID},
		TimeSlots: []uint64{ts.ID}, Dates: []time.Time{june1},
	})
	wantKind(t, err, ErrNoValidSchedules)
	if res.Conflicts != 1 || res.ConflictDetails[0].Reason != ReasonBooked {
		t.Fatalf("result %+v", res)
	}
}

func TestListSchedules_Scoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.db.AddScreen(1, "A", 500)
	b := f.db.AddScreen(2, "B", 500)
	ts := f.db.AddSlot("T", "09:00", "12:00")
	if _, err := f.sched.Generate(ctx, superAdmin, GenerateInput{
		Events: []uint64{1}, Locations: []uint64{1, 2}, Screens: []uint64{a.ID, b.ID},
		TimeSlots: []uint64{ts.ID}, Dates: []time.Time{june1},
	}); err != nil {
		t.Fatal(err)
	}
	scoped := model.NewActor(4, model.RoleAdmin, []uint64{2})
	got, err := f.sched.List(ctx, scoped, 0, nil)
	if err != nil || len(got) != 1 || got[0].ScreenID != b.ID || got[0].SlotName != "T" {
		t.Fatalf("got %+v, %v", got, err)
	}
	_, err = f.sched.List(ctx, scoped, 1, nil)
	wantKind(t, err, ErrForbidden)
	other := june1.AddDate(0, 0, 3)
	got, _ = f.sched.List(ctx, superAdmin, 0, &other)
	if len(got) != 0 {
		t.Fatalf("date filter: %d", len(got))
	}
}
