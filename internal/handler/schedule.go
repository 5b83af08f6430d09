package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/service"
)

// ScheduleHandler exposes bulk schedule generation and listing.
type ScheduleHandler struct {
	Svc *service.ScheduleService
}

func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{Svc: svc}
}

type generateReq struct {
	Events      []uint64 `json:"events"`
	Locations   []uint64 `json:"locations"`
	Screens     []uint64 `json:"screens"`
	TimeSlots   []uint64 `json:"timeSlots"`
	DateStrings []string `json:"dates"`
}

// Generate handles POST /v1/admin/schedules.
func (h *ScheduleHandler) Generate(c echo.Context) error {
	var req generateReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	var in service.GenerateInput
	if err := copier.Copy(&in, &req); err != nil {
		return respondError(c, err)
	}
	fields := map[string]string{}
	for i, raw := range req.DateStrings {
		d, err := service.ParseDate(raw)
		if err != nil {
			fields[fmt.Sprintf("dates[%d]", i)] = "must be YYYY-MM-DD"
			continue
		}
		in.Dates = append(in.Dates, d)
	}
	if len(fields) > 0 {
		return respondError(c, &service.ValidationError{Message: "Invalid dates", Fields: fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Generate(ctx, actorOf(c), in)
	if errors.Is(err, service.ErrNoValidSchedules) && res != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":   false,
			"error":     err.Error(),
			"conflicts": res.ConflictDetails,
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":         true,
		"created":         res.Created,
		"conflicts":       res.Conflicts,
		"conflictDetails": res.ConflictDetails,
	})
}

// List handles GET /v1/admin/schedules?location&date.
func (h *ScheduleHandler) List(c echo.Context) error {
	q := newQueryParser(c)
	locationID := q.uint("location")
	date := q.date("date")
	if err := q.err(); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Svc.List(ctx, actorOf(c), locationID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "schedules": list})
}
