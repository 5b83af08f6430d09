package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

func TestAvailabilityCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.db.AddScreen(10, "One", 500)
	s2 := f.db.AddScreen(10, "Two", 500)
	f.db.AddScreen(20, "Elsewhere", 500)
	evening := f.db.AddSlot("Evening", "18:00", "21:00")
	morning := f.db.AddSlot("Morning", "09:00", "12:00")
	off := f.db.AddSlot("Retired", "06:00", "08:00")
	off.IsActive = false
	if err := f.db.Slots.Update(ctx, &off); err != nil {
		t.Fatal(err)
	}

	booked, err := f.bookings.Create(ctx, superAdmin, bookingInput(s1, june1, "09:00", "12:00"))
	if err != nil {
		t.Fatal(err)
	}
	// Overlapping but not identical: does not block the catalog slot.
	if _, err := f.bookings.Create(ctx, superAdmin, bookingInput(s2, june1, "17:00", "19:00")); err != nil {
		t.Fatal(err)
	}
	pending := bookingInput(s2, june1, "09:00", "12:00")
	pending.BookingStatus = model.BookingPending
	if _, err := f.bookings.Create(ctx, superAdmin, pending); err != nil {
		t.Fatal(err)
	}

	got, err := f.avail.Check(ctx, 10, june1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Screen.ID != s1.ID || got[1].Screen.ID != s2.ID {
		t.Fatalf("screens %+v", got)
	}
	ids := func(vs []SlotView) []uint64 {
		out := []uint64{}
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}
	if a := ids(got[0].AvailableSlots); !reflect.DeepEqual(a, []uint64{evening.ID}) {
		t.Fatalf("screen one available = %v", a)
	}
	if len(got[0].BookedSlots) != 1 || got[0].BookedSlots[0].ID != morning.ID || got[0].BookedSlots[0].BookingID != booked.BookingID {
		t.Fatalf("screen one booked = %+v", got[0].BookedSlots)
	}
	if a := ids(got[1].AvailableSlots); !reflect.DeepEqual(a, []uint64{morning.ID, evening.ID}) {
		t.Fatalf("screen two available = %v (catalog order, exact match only)", a)
	}

	again, _ := f.avail.Check(ctx, 10, june1, 0)
	if !reflect.DeepEqual(got, again) {
		t.Fatal("availability must be idempotent")
	}

	only, _ := f.avail.Check(ctx, 10, june1, s2.ID)
	if len(only) != 1 || only[0].Screen.ID != s2.ID {
		t.Fatalf("screen filter: %+v", only)
	}
	none, err := f.avail.Check(ctx, 999, june1, 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown location: %v, %v", none, err)
	}
	_, err = f.avail.Check(ctx, 0, time.Time{}, 0)
	wantValidation(t, err, "location")
}

func TestSlotsForScreen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.db.AddScreen(10, "One", 500)
	f.db.AddSlot("Morning", "09:00", "12:00")
	evening := f.db.AddSlot("Evening", "18:00", "21:00")
	if _, err := f.bookings.Create(ctx, superAdmin, bookingInput(s, june1, "09:00", "12:00")); err != nil {
		t.Fatal(err)
	}
	got, err := f.avail.SlotsForScreen(ctx, s.ID, june1)
	if err != nil || len(got) != 1 || got[0].ID != evening.ID || got[0].Duration != 3 {
		t.Fatalf("got %+v, %v", got, err)
	}
	_, err = f.avail.SlotsForScreen(ctx, 12345, june1)
	wantKind(t, err, ErrNotFound)
}

func TestFreeScreens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.db.AddScreen(10, "One", 500)
	s2 := f.db.AddScreen(10, "Two", 500)
	if _, err := f.bookings.Create(ctx, superAdmin, bookingInput(s1, june1, "09:00", "12:00")); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		start, end string
		want       []uint64
	}{
		{"11:00", "13:00", []uint64{s2.ID}},
		{"12:00", "14:00", []uint64{s1.ID, s2.ID}},
		{"7:00", "9:00", []uint64{s1.ID, s2.ID}},
		{"08:00", "18:00", []uint64{s2.ID}},
	}
	for _, c := range cases {
		got, err := f.avail.FreeScreens(ctx, superAdmin, 10, june1, c.start, c.end)
		if err != nil {
			t.Fatal(err)
		}
		var ids []uint64
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		if !reflect.DeepEqual(ids, c.want) {
			t.Errorf("window %s-%s: free = %v, want %v", c.start, c.end, ids, c.want)
		}
	}

	_, err := f.avail.FreeScreens(ctx, model.NewActor(3, model.RoleAdmin, []uint64{20}), 10, june1, "09:00", "10:00")
	wantKind(t, err, ErrForbidden)
	_, err = f.avail.FreeScreens(ctx, superAdmin, 10, june1, "10:00", "09:00")
	wantValidation(t, err, "endTime")
}
