package handler

import (
	"net/http"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// BookingHandler exposes the admin booking lifecycle.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

// Request bodies.  Fields whose wire shape differs from the service input
// use a different Go name so copier leaves them alone; they are mapped by
// hand below.

type customerInfoReq struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type slotReq struct {
	Name      string  `json:"name"`
	StartTime string  `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   string  `json:"endTime" validate:"omitempty,hhmm"`
	Duration  float64 `json:"duration" validate:"gte=0"`
}

type pricingReq struct {
	AdditionalCharges []model.Charge `json:"additionalCharges"`
	DiscountApplied   model.Discount `json:"discountApplied"`
}

type paymentReq struct {
	AdvancePaid float64 `json:"advancePaid"`
}

type createBookingReq struct {
	Customer        customerInfoReq       `json:"customerInfo"`
	Screen          uint64                `json:"screen"`
	Location        uint64                `json:"location"`
	Date            string                `json:"bookingDate"`
	Slot            slotReq               `json:"timeSlot"`
	EventType       string                `json:"eventType"`
	NumberOfGuests  uint32                `json:"numberOfGuests"`
	SpecialRequests model.SpecialRequests `json:"specialRequests"`
	Pricing         pricingReq            `json:"pricing"`
	Payment         paymentReq            `json:"paymentInfo"`
	BookingStatus   string                `json:"bookingStatus" validate:"omitempty,oneof=pending confirmed"`
}

// updateBookingReq is the allow-list of patchable fields.  Anything else
// in the body, pricing included, is dropped by the decoder.
type updateBookingReq struct {
	EventType       *string                `json:"eventType"`
	NumberOfGuests  *uint32                `json:"numberOfGuests"`
	BookingStatus   *string                `json:"bookingStatus" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Date            *string                `json:"bookingDate"`
	Slot            *slotReq               `json:"timeSlot"`
	SpecialRequests *model.SpecialRequests `json:"specialRequests"`
}

type cancelBookingReq struct {
	Reason       string  `json:"reason"`
	RefundAmount float64 `json:"refundAmount"`
}

// bookingSummary is the trimmed booking returned on create.
type bookingSummary struct {
	ID            uint64             `json:"id"`
	BookingID     string             `json:"bookingId"`
	CustomerInfo  model.CustomerInfo `json:"customerInfo"`
	TotalAmount   float64            `json:"totalAmount"`
	BookingStatus string             `json:"bookingStatus"`
}

func badDate(field string) error {
	return &service.ValidationError{
		Message: "Please provide all required fields",
		Fields:  map[string]string{field: "must be YYYY-MM-DD"},
	}
}

// Create handles POST /v1/admin/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	var in service.CreateBookingInput
	if err := copier.Copy(&in, &req); err != nil {
		return respondError(c, err)
	}
	in.CustomerInfo = model.CustomerInfo(req.Customer)
	in.ScreenID = req.Screen
	in.LocationID = req.Location
	in.TimeSlot = service.SlotInput(req.Slot)
	in.AdditionalCharges = req.Pricing.AdditionalCharges
	in.Discount = req.Pricing.DiscountApplied
	in.AdvancePaid = req.Payment.AdvancePaid
	if strings.TrimSpace(req.Date) != "" {
		d, err := service.ParseDate(req.Date)
		if err != nil {
			return respondError(c, badDate("bookingDate"))
		}
		in.BookingDate = d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Create(ctx, actorOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"booking": bookingSummary{
			ID:            b.ID,
			BookingID:     b.BookingID,
			CustomerInfo:  b.CustomerInfo,
			TotalAmount:   b.Pricing.TotalAmount,
			BookingStatus: b.BookingStatus,
		},
	})
}

// List handles GET /v1/admin/bookings?location&screen&status&startDate&endDate.
func (h *BookingHandler) List(c echo.Context) error {
	q := newQueryParser(c)
	f := model.BookingFilter{
		LocationID: q.uint("location"),
		ScreenID:   q.uint("screen"),
		Status:     strings.TrimSpace(c.QueryParam("status")),
		StartDate:  q.date("startDate"),
		EndDate:    q.date("endDate"),
	}
	if err := q.err(); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Svc.List(ctx, actorOf(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "bookings": list})
}

// Get handles GET /v1/admin/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Get(ctx, actorOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": b})
}

// Update handles PUT /v1/admin/bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateBookingReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	var in service.UpdateBookingInput
	if err := copier.Copy(&in, &req); err != nil {
		return respondError(c, err)
	}
	if req.Slot != nil {
		s := service.SlotInput(*req.Slot)
		in.TimeSlot = &s
	}
	if req.Date != nil {
		d, err := service.ParseDate(*req.Date)
		if err != nil {
			return respondError(c, badDate("bookingDate"))
		}
		in.BookingDate = &d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Update(ctx, actorOf(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Booking updated successfully", "booking": b})
}

// Cancel handles DELETE /v1/admin/bookings/:id.  The body is optional.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req cancelBookingReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Cancel(ctx, actorOf(c), id, service.CancelInput{Reason: req.Reason, RefundAmount: req.RefundAmount})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Booking cancelled successfully", "booking": b})
}
