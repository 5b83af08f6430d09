// Package queue carries booking notifications over RabbitMQ.  The API
// publishes a BookingEvent after each committed booking change; a consumer
// running alongside the server turns events into customer e-mails.
package queue

import (
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// BookingEvent is the message body on the booking events queue.  It is
// self-contained so consumers never need to read the database.
type BookingEvent struct {
	Event         string    `json:"event"` // booking.created, booking.updated, booking.cancelled
	BookingID     string    `json:"bookingId"`
	ID            uint64    `json:"id"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	ScreenID      uint64    `json:"screen"`
	LocationID    uint64    `json:"location"`
	BookingDate   string    `json:"bookingDate"` // YYYY-MM-DD
	SlotName      string    `json:"slotName"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	EventType     string    `json:"eventType"`
	Status        string    `json:"status"`
	TotalAmount   float64   `json:"totalAmount"`
	Remaining     float64   `json:"remainingAmount"`
	CancelReason  string    `json:"cancelReason,omitempty"`
	RefundAmount  float64   `json:"refundAmount,omitempty"`
	RefundStatus  string    `json:"refundStatus,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewBookingEvent flattens a booking into an event payload.
func NewBookingEvent(event string, b model.Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		Event:         event,
		BookingID:     b.BookingID,
		ID:            b.ID,
		CustomerName:  b.CustomerInfo.Name,
		CustomerEmail: b.CustomerInfo.Email,
		ScreenID:      b.ScreenID,
		LocationID:    b.LocationID,
		BookingDate:   b.BookingDate.Format(time.DateOnly),
		SlotName:      b.TimeSlot.Name,
		StartTime:     b.TimeSlot.StartTime,
		EndTime:       b.TimeSlot.EndTime,
		EventType:     b.EventType,
		Status:        b.BookingStatus,
		TotalAmount:   b.Pricing.TotalAmount,
		Remaining:     b.PaymentInfo.RemainingAmount,
		OccurredAt:    at.UTC(),
	}
	if c := b.Cancellation; c != nil {
		ev.CancelReason = c.Reason
		ev.RefundAmount = c.RefundAmount
		ev.RefundStatus = c.RefundStatus
	}
	return ev
}
