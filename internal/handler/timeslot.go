package handler

import (
	"net/http"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/service"
)

// TimeSlotHandler maintains the slot catalog.
type TimeSlotHandler struct {
	Svc *service.TimeSlotService
}

func NewTimeSlotHandler(svc *service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{Svc: svc}
}

type createSlotReq struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   string `json:"endTime" validate:"omitempty,hhmm"`
	IsActive  *bool  `json:"isActive"`
}

type updateSlotReq struct {
	Name      *string `json:"name"`
	StartTime *string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   *string `json:"endTime" validate:"omitempty,hhmm"`
	IsActive  *bool   `json:"isActive"`
}

// List handles GET /v1/admin/slots[?active=true].
func (h *TimeSlotHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Svc.List(ctx, c.QueryParam("active") == "true")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "timeSlots": slots})
}

// Create handles POST /v1/admin/slots.
func (h *TimeSlotHandler) Create(c echo.Context) error {
	var req createSlotReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	var in service.TimeSlotInput
	if err := copier.Copy(&in, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ts, err := h.Svc.Create(ctx, actorOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "timeSlot": ts})
}

// Update handles PUT /v1/admin/slots/:id.
func (h *TimeSlotHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateSlotReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	var p service.TimeSlotPatch
	if err := copier.Copy(&p, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ts, err := h.Svc.Update(ctx, id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "timeSlot": ts})
}
