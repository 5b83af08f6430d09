package model

import "time"

// Booking statuses.  Only BookingConfirmed blocks a slot.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Refund statuses recorded on cancellation.
const (
	RefundPending   = "pending"
	RefundProcessed = "processed"
)

// CustomerInfo identifies the person who booked the screen.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SlotSnapshot is the copy of a catalog slot taken when the booking is
// written.  Later catalog edits never change it.
type SlotSnapshot struct {
	Name      string  `json:"name"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Duration  float64 `json:"duration"` // hours, two decimals
}

// SpecialRequests holds the optional extras of a booking.  Pointer fields
// distinguish "not provided" from a false/empty value when merging.
type SpecialRequests struct {
	Decorations   *bool   `json:"decorations,omitempty"`
	Cake          *bool   `json:"cake,omitempty"`
	Photography   *bool   `json:"photography,omitempty"`
	CustomMessage *string `json:"customMessage,omitempty"`
}

// Charge is an additional line item added on top of the base price.
type Charge struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Discount is a flat reduction applied to the total.
type Discount struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// Pricing is always computed on the server from screen data.
type Pricing struct {
	BasePrice         float64  `json:"basePrice"`
	AdditionalCharges []Charge `json:"additionalCharges"`
	DiscountApplied   Discount `json:"discountApplied"`
	TotalAmount       float64  `json:"totalAmount"`
}

// PaymentInfo tracks the advance and the outstanding balance.
type PaymentInfo struct {
	AdvancePaid     float64 `json:"advancePaid"`
	RemainingAmount float64 `json:"remainingAmount"`
}

// Cancellation is set once, when the booking enters the cancelled state.
type Cancellation struct {
	Reason       string    `json:"reason"`
	CancelledAt  time.Time `json:"cancelledAt"`
	CancelledBy  uint64    `json:"cancelledBy"`
	RefundAmount float64   `json:"refundAmount"`
	RefundStatus string    `json:"refundStatus"`
}

// Booking is a customer reservation of a screen for one slot on one date.
// For a given (screen, booking date, slot start, slot end) at most one
// booking may be confirmed; the bookings table enforces this with a
// unique index over a generated column.
//
// Fields:
//  ID             – primary key identifier.
//  BookingID      – human-readable code, e.g. HS250601-3FA2C1.
//  ScreenID       – booked screen.
//  LocationID     – location of the screen.
//  BookingDate    – calendar date (UTC midnight, time of day dropped).
//  TimeSlot       – snapshot of the slot.
//  BookingStatus  – pending, confirmed, cancelled or completed.
//  Cancellation   – nil unless cancelled.
type Booking struct {
	ID              uint64          `json:"id"`              // bookings.id
	BookingID       string          `json:"bookingId"`       // bookings.booking_code
	CustomerInfo    CustomerInfo    `json:"customerInfo"`    // bookings.customer_*
	ScreenID        uint64          `json:"screen"`          // bookings.screen_id
	LocationID      uint64          `json:"location"`        // bookings.location_id
	BookingDate     time.Time       `json:"bookingDate"`     // bookings.booking_date
	TimeSlot        SlotSnapshot    `json:"timeSlot"`        // bookings.slot_*
	EventType       string          `json:"eventType"`       // bookings.event_type
	NumberOfGuests  uint32          `json:"numberOfGuests"`  // bookings.number_of_guests
	SpecialRequests SpecialRequests `json:"specialRequests"` // bookings.special_requests (JSON)
	Pricing         Pricing         `json:"pricing"`         // bookings.base_price ... total_amount
	PaymentInfo     PaymentInfo     `json:"paymentInfo"`     // bookings.advance_paid, remaining_amount
	BookingStatus   string          `json:"bookingStatus"`   // bookings.booking_status
	Cancellation    *Cancellation   `json:"cancellation,omitempty"`
	CreatedBy       uint64          `json:"createdBy"`      // bookings.created_by
	LastModifiedBy  uint64          `json:"lastModifiedBy"` // bookings.last_modified_by
	CreatedAt       time.Time       `json:"createdAt"`      // bookings.created_at
	UpdatedAt       time.Time       `json:"updatedAt"`      // bookings.updated_at
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.BookingStatus == BookingCancelled || b.BookingStatus == BookingCompleted
}

// BookingFilter narrows booking listings.  Zero values mean "any".
// LocationIDs restricts results to a set of locations and is used to
// apply admin scoping.
type BookingFilter struct {
	LocationIDs []uint64
	LocationID  uint64
	ScreenID    uint64
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
}
