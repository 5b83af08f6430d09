package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// AvailabilityHandler serves the slot availability reads.  The same
// service backs the public and the admin routes; only the admin view
// reveals who holds a booked slot.
type AvailabilityHandler struct {
	Svc *service.AvailabilityService
}

func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc}
}

// publicAvailability omits the booked slots.
type publicAvailability struct {
	Screen         model.Screen       `json:"screen"`
	AvailableSlots []service.SlotView `json:"availableSlots"`
}

// Public handles GET /v1/availability?location&date[&screen].
func (h *AvailabilityHandler) Public(c echo.Context) error {
	return h.check(c, false)
}

// Admin handles GET /v1/admin/availability?location&date[&screen].
func (h *AvailabilityHandler) Admin(c echo.Context) error {
	return h.check(c, true)
}

func (h *AvailabilityHandler) check(c echo.Context, withBooked bool) error {
	q := newQueryParser(c)
	locationID := q.uint("location")
	screenID := q.uint("screen")
	date := q.date("date")
	if err := q.err(); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Check(ctx, locationID, derefDate(date), screenID)
	if err != nil {
		return respondError(c, err)
	}
	body := echo.Map{"success": true, "date": c.QueryParam("date"), "location": locationID}
	if withBooked {
		body["availability"] = res
	} else {
		out := make([]publicAvailability, 0, len(res))
		for _, r := range res {
			out = append(out, publicAvailability{Screen: r.Screen, AvailableSlots: r.AvailableSlots})
		}
		body["availability"] = out
	}
	return c.JSON(http.StatusOK, body)
}

// TimeSlots handles GET /v1/timeslots?screen&date.
func (h *AvailabilityHandler) TimeSlots(c echo.Context) error {
	q := newQueryParser(c)
	screenID := q.uint("screen")
	date := q.date("date")
	if err := q.err(); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Svc.SlotsForScreen(ctx, screenID, derefDate(date))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "timeSlots": slots})
}

// FreeScreens handles GET /v1/admin/screens/available?location&date&start&end.
func (h *AvailabilityHandler) FreeScreens(c echo.Context) error {
	q := newQueryParser(c)
	locationID := q.uint("location")
	date := q.date("date")
	if err := q.err(); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	screens, err := h.Svc.FreeScreens(ctx, actorOf(c), locationID, derefDate(date), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "screens": screens})
}
