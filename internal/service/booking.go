package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// DefaultCancelReason is recorded when an admin cancels without a reason.
const DefaultCancelReason = "Cancelled by admin"

const msgSlotTaken = "Time slot already booked for this screen"

// SlotInput is the time slot of a booking request.  Duration is accepted
// for compatibility but the stored value is always derived from the times.
type SlotInput struct {
	Name      string
	StartTime string
	EndTime   string
	Duration  float64
}

// CreateBookingInput is everything needed to book a screen.
type CreateBookingInput struct {
	CustomerInfo      model.CustomerInfo
	ScreenID          uint64
	LocationID        uint64
	BookingDate       time.Time
	TimeSlot          SlotInput
	EventType         string
	NumberOfGuests    uint32
	SpecialRequests   model.SpecialRequests
	AdditionalCharges []model.Charge
	Discount          model.Discount
	AdvancePaid       float64
	BookingStatus     string // pending or confirmed; empty means confirmed
}

// UpdateBookingInput is the allow-listed patch accepted by Update.  Nil
// fields are left untouched; anything not listed here cannot be changed.
type UpdateBookingInput struct {
	EventType       *string
	NumberOfGuests  *uint32
	BookingStatus   *string
	BookingDate     *time.Time
	TimeSlot        *SlotInput
	SpecialRequests *model.SpecialRequests
}

// CancelInput carries the optional cancellation details.
type CancelInput struct {
	Reason       string
	RefundAmount float64
}

// BookingService guards booking creation against double booking and
// drives the booking lifecycle.
type BookingService struct {
	bookings   BookingStore
	screens    ScreenStore
	schedules  ScheduleStore
	notifier   Notifier
	crossCheck bool
	now        func() time.Time
}

// BookingOption configures a BookingService.
type BookingOption func(*BookingService)

// WithNotifier sets the notification sink.  The default drops events.
func WithNotifier(n Notifier) BookingOption {
	return func(s *BookingService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithScheduleCrossCheck makes booking creation also reject slots held by
// an active event schedule.
func WithScheduleCrossCheck(on bool) BookingOption {
	return func(s *BookingService) { s.crossCheck = on }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func NewBookingService(bookings BookingStore, screens ScreenStore, schedules ScheduleStore, opts ...BookingOption) *BookingService {
	s := &BookingService{
		bookings:  bookings,
		screens:   screens,
		schedules: schedules,
		notifier:  nopNotifier{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewBookingCode returns a human-readable booking code: "HS", the booking
// creation date as YYMMDD and a random suffix.
func NewBookingCode(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "HS" + at.UTC().Format("060102") + "-" + suffix
}

func (in *CreateBookingInput) validate() error {
	fe := fieldErrors{}
	if strings.TrimSpace(in.CustomerInfo.Name) == "" {
		fe.add("customerInfo.name", "is required")
	}
	if strings.TrimSpace(in.CustomerInfo.Email) == "" {
		fe.add("customerInfo.email", "is required")
	}
	if strings.TrimSpace(in.CustomerInfo.Phone) == "" {
		fe.add("customerInfo.phone", "is required")
	}
	if in.ScreenID == 0 {
		fe.add("screen", "is required")
	}
	if in.LocationID == 0 {
		fe.add("location", "is required")
	}
	if in.BookingDate.IsZero() {
		fe.add("bookingDate", "is required")
	}
	if in.TimeSlot.StartTime == "" {
		fe.add("timeSlot.startTime", "is required")
	}
	if in.TimeSlot.EndTime == "" {
		fe.add("timeSlot.endTime", "is required")
	}
	if in.TimeSlot.Duration <= 0 {
		fe.add("timeSlot.duration", "is required")
	}
	if in.TimeSlot.StartTime != "" && in.TimeSlot.EndTime != "" {
		in.TimeSlot.StartTime, in.TimeSlot.EndTime = normalizeRange(in.TimeSlot.StartTime, in.TimeSlot.EndTime, fe, "timeSlot.")
	}
	if strings.TrimSpace(in.EventType) == "" {
		fe.add("eventType", "is required")
	}
	switch in.BookingStatus {
	case "", model.BookingPending, model.BookingConfirmed:
	default:
		fe.add("bookingStatus", "must be pending or confirmed")
	}
	for _, c := range in.AdditionalCharges {
		if c.Amount < 0 {
			fe.add("pricing.additionalCharges", "amounts must not be negative")
		}
	}
	if in.Discount.Amount < 0 {
		fe.add("pricing.discountApplied.amount", "must not be negative")
	}
	if in.AdvancePaid < 0 {
		fe.add("paymentInfo.advancePaid", "must not be negative")
	}
	return fe.err("Please provide all required fields")
}

// Create books a screen for one slot on one date.  The order of checks is
// fixed: input validation, location permission, screen lookup, the
// confirmed-slot pre-check, then the insert, whose unique index settles
// races between concurrent requests.
func (s *BookingService) Create(ctx context.Context, actor model.Actor, in CreateBookingInput) (*model.Booking, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !actor.CanAccessLocation(in.LocationID) {
		return nil, forbidden("Not authorized to create bookings for this location")
	}
	screen, err := s.screens.GetByID(ctx, in.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return nil, notFound("Screen not found")
		}
		return nil, fmt.Errorf("get screen: %w", err)
	}
	if screen.LocationID != in.LocationID {
		return nil, invalid("screen", "Screen does not belong to the selected location")
	}

	date := DateOnly(in.BookingDate)
	start, end := in.TimeSlot.StartTime, in.TimeSlot.EndTime
	if err := s.ensureSlotFree(ctx, screen.ID, date, start, end, 0); err != nil {
		return nil, err
	}

	status := in.BookingStatus
	if status == "" {
		status = model.BookingConfirmed
	}
	duration := SlotDuration(start, end)
	pricing, payment := ComputePricing(screen.PricePerHour, duration, in.AdditionalCharges, in.Discount, in.AdvancePaid)
	guests := in.NumberOfGuests
	if guests == 0 {
		guests = 1
	}
	now := s.now()
	b := &model.Booking{
		BookingID: NewBookingCode(now),
		CustomerInfo: model.CustomerInfo{
			Name:  strings.TrimSpace(in.CustomerInfo.Name),
			Email: strings.ToLower(strings.TrimSpace(in.CustomerInfo.Email)),
			Phone: strings.TrimSpace(in.CustomerInfo.Phone),
		},
		ScreenID:        screen.ID,
		LocationID:      screen.LocationID,
		BookingDate:     date,
		TimeSlot:        model.SlotSnapshot{Name: in.TimeSlot.Name, StartTime: start, EndTime: end, Duration: duration},
		EventType:       strings.TrimSpace(in.EventType),
		NumberOfGuests:  guests,
		SpecialRequests: in.SpecialRequests,
		Pricing:         pricing,
		PaymentInfo:     payment,
		BookingStatus:   status,
		CreatedBy:       actor.ID,
		LastModifiedBy:  actor.ID,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict(msgSlotTaken)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	log.WithFields(log.Fields{"booking": b.BookingID, "screen": b.ScreenID, "date": b.BookingDate.Format(time.DateOnly), "slot": start + "-" + end}).Info("booking created")
	s.notify(ctx, EventBookingCreated, b)
	return b, nil
}

// ensureSlotFree is the advisory pre-check.  It rejects a slot already
// held by another confirmed booking and, when enabled, by an active event
// schedule.
func (s *BookingService) ensureSlotFree(ctx context.Context, screenID uint64, date time.Time, start, end string, excludeID uint64) error {
	existing, err := s.bookings.FindConfirmedMatch(ctx, screenID, date, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("conflict check: %w", err)
	}
	if existing != nil {
		return conflict(msgSlotTaken)
	}
	if s.crossCheck && s.schedules != nil {
		held, err := s.schedules.ActiveForSlotTimes(ctx, screenID, date, start, end)
		if err != nil {
			return fmt.Errorf("schedule check: %w", err)
		}
		if held {
			return conflict("Screen has an event scheduled for this slot")
		}
	}
	return nil
}

// load fetches a booking and applies the location permission check.
func (s *BookingService) load(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, notFound("Booking not found")
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if !actor.CanAccessLocation(b.LocationID) {
		return nil, forbidden("Not authorized to access this booking")
	}
	return b, nil
}

// Get returns one booking if the actor may see its location.
func (s *BookingService) Get(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	return s.load(ctx, actor, id)
}

// List returns bookings matching the filter, restricted to the actor's
// locations.  Asking for a location outside that set is forbidden.
func (s *BookingService) List(ctx context.Context, actor model.Actor, f model.BookingFilter) ([]model.Booking, error) {
	if f.LocationID != 0 && !actor.CanAccessLocation(f.LocationID) {
		return nil, forbidden("Not authorized for this location")
	}
	if f.Status != "" && !validStatus(f.Status) {
		return nil, invalid("status", "Unknown booking status")
	}
	f.LocationIDs = actor.LocationIDs()
	out, err := s.bookings.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func validStatus(s string) bool {
	switch s {
	case model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted:
		return true
	}
	return false
}

// canTransition lists the lifecycle edges.  Staying in the same
// non-terminal state is allowed so that a patch may repeat the status.
func canTransition(from, to string) bool {
	switch from {
	case model.BookingPending:
		return to == model.BookingPending || to == model.BookingConfirmed || to == model.BookingCancelled
	case model.BookingConfirmed:
		return to == model.BookingConfirmed || to == model.BookingCompleted || to == model.BookingCancelled
	}
	return false
}

// Update applies an allow-listed patch.  specialRequests are merged field
// by field.  When the date or slot changes, or the booking becomes
// confirmed, the slot is re-checked with the booking itself excluded.
func (s *BookingService) Update(ctx context.Context, actor model.Actor, id uint64, in UpdateBookingInput) (*model.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.IsTerminal() {
		return nil, conflict(fmt.Sprintf("Booking is %s and can no longer be modified", b.BookingStatus))
	}

	fe := fieldErrors{}
	prevStatus := b.BookingStatus
	dateChanged, slotChanged := false, false

	if in.EventType != nil {
		if et := strings.TrimSpace(*in.EventType); et != "" {
			b.EventType = et
		} else {
			fe.add("eventType", "must not be empty")
		}
	}
	if in.NumberOfGuests != nil {
		if *in.NumberOfGuests == 0 {
			fe.add("numberOfGuests", "must be at least 1")
		} else {
			b.NumberOfGuests = *in.NumberOfGuests
		}
	}
	if in.BookingDate != nil {
		if in.BookingDate.IsZero() {
			fe.add("bookingDate", "is invalid")
		} else if d := DateOnly(*in.BookingDate); !d.Equal(b.BookingDate) {
			b.BookingDate = d
			dateChanged = true
		}
	}
	if in.TimeSlot != nil {
		start, end := normalizeRange(in.TimeSlot.StartTime, in.TimeSlot.EndTime, fe, "timeSlot.")
		if start != b.TimeSlot.StartTime || end != b.TimeSlot.EndTime {
			slotChanged = true
		}
		b.TimeSlot.StartTime, b.TimeSlot.EndTime = start, end
		switch name := strings.TrimSpace(in.TimeSlot.Name); {
		case name != "":
			b.TimeSlot.Name = name
		case slotChanged:
			// The old label describes the old times.
			b.TimeSlot.Name = ""
		}
	}
	if in.SpecialRequests != nil {
		mergeSpecialRequests(&b.SpecialRequests, *in.SpecialRequests)
	}
	if in.BookingStatus != nil {
		to := *in.BookingStatus
		switch {
		case !validStatus(to):
			fe.add("bookingStatus", "Unknown booking status")
		case !canTransition(prevStatus, to):
			return nil, conflict(fmt.Sprintf("Cannot change booking status from %s to %s", prevStatus, to))
		default:
			b.BookingStatus = to
		}
	}
	if err := fe.err("Invalid booking update"); err != nil {
		return nil, err
	}

	becameConfirmed := b.BookingStatus == model.BookingConfirmed && prevStatus != model.BookingConfirmed
	if dateChanged || slotChanged || becameConfirmed {
		if err := s.ensureSlotFree(ctx, b.ScreenID, b.BookingDate, b.TimeSlot.StartTime, b.TimeSlot.EndTime, b.ID); err != nil {
			return nil, err
		}
	}
	if slotChanged {
		screen, err := s.screens.GetByID(ctx, b.ScreenID)
		if err != nil {
			return nil, fmt.Errorf("get screen: %w", err)
		}
		b.TimeSlot.Duration = SlotDuration(b.TimeSlot.StartTime, b.TimeSlot.EndTime)
		b.Pricing, b.PaymentInfo = ComputePricing(screen.PricePerHour, b.TimeSlot.Duration,
			b.Pricing.AdditionalCharges, b.Pricing.DiscountApplied, b.PaymentInfo.AdvancePaid)
	}
	event := EventBookingUpdated
	if b.BookingStatus == model.BookingCancelled {
		b.Cancellation = s.cancellation(actor, DefaultCancelReason, 0)
		event = EventBookingCancelled
	}
	b.LastModifiedBy = actor.ID

	if err := s.bookings.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict(msgSlotTaken)
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	log.WithFields(log.Fields{"booking": b.BookingID, "status": b.BookingStatus}).Info("booking updated")
	s.notify(ctx, event, b)
	return b, nil
}

func mergeSpecialRequests(dst *model.SpecialRequests, patch model.SpecialRequests) {
	if patch.Decorations != nil {
		dst.Decorations = patch.Decorations
	}
	if patch.Cake != nil {
		dst.Cake = patch.Cake
	}
	if patch.Photography != nil {
		dst.Photography = patch.Photography
	}
	if patch.CustomMessage != nil {
		dst.CustomMessage = patch.CustomMessage
	}
}

func (s *BookingService) cancellation(actor model.Actor, reason string, refund float64) *model.Cancellation {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultCancelReason
	}
	status := model.RefundProcessed
	if refund > 0 {
		status = model.RefundPending
	}
	return &model.Cancellation{
		Reason:       strings.TrimSpace(reason),
		CancelledAt:  s.now().UTC(),
		CancelledBy:  actor.ID,
		RefundAmount: refund,
		RefundStatus: status,
	}
}

// Cancel moves a pending or confirmed booking to cancelled.  A refund
// greater than zero is left pending for the payments team; otherwise the
// refund is recorded as processed.  Cancelling frees the slot.
func (s *BookingService) Cancel(ctx context.Context, actor model.Actor, id uint64, in CancelInput) (*model.Booking, error) {
	if in.RefundAmount < 0 {
		return nil, invalid("refundAmount", "must not be negative")
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.IsTerminal() {
		return nil, conflict(fmt.Sprintf("Booking is already %s", b.BookingStatus))
	}
	b.BookingStatus = model.BookingCancelled
	b.Cancellation = s.cancellation(actor, in.Reason, in.RefundAmount)
	b.LastModifiedBy = actor.ID
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	log.WithFields(log.Fields{"booking": b.BookingID, "refund": in.RefundAmount}).Info("booking cancelled")
	s.notify(ctx, EventBookingCancelled, b)
	return b, nil
}

// CompletePast marks confirmed bookings dated before the calendar day of
// now as completed.  now should be in the business time zone.
func (s *BookingService) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.bookings.CompleteBefore(ctx, DateOnly(now))
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return n, nil
}

// notify hands the event to the notifier.  Failures never reach the
// caller: the booking is already committed.
func (s *BookingService) notify(ctx context.Context, event string, b *model.Booking) {
	if err := s.notifier.Notify(ctx, event, *b); err != nil {
		log.WithError(err).WithFields(log.Fields{"booking": b.BookingID, "event": event}).Warn("booking notification failed")
	}
}
