package handler // handler contains the echo HTTP handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

var validate = newValidator()

// newValidator returns a validator that reports JSON field names and knows
// the "hhmm" tag for 24h clock times.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return service.ValidHHMM(fl.Field().String())
	})
	return v
}

// bindAndValidate decodes the JSON body into dst and runs struct
// validation.  Failures come back as *service.ValidationError.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &service.ValidationError{Message: "Invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &service.ValidationError{Message: "Invalid request body"}
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			// Namespace is "createBookingReq.customerInfo.email"; drop the type.
			_, path, _ := strings.Cut(fe.Namespace(), ".")
			fields[path] = describe(fe)
		}
		return &service.ValidationError{Message: "Please provide all required fields", Fields: fields}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid e-mail address"
	case "hhmm":
		return "must be HH:MM"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt", "gte", "min":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

// respondError maps service errors onto HTTP responses.  Anything the
// service did not classify is logged and reported as a 500 without detail.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body := echo.Map{"success": false, "error": ve.Message}
		if len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
		return c.JSON(http.StatusBadRequest, body)
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoValidSchedules):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"rid":    c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error("request failed")
		return c.JSON(status, echo.Map{"success": false, "error": "Internal server error"})
	}
	return c.JSON(status, echo.Map{"success": false, "error": err.Error()})
}

// actorOf returns the caller set by middleware.JWTAuth.  Routes without it
// get an actor with no role, which passes no capability check.
func actorOf(c echo.Context) model.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Message: "Invalid id", Fields: map[string]string{"id": "must be a positive integer"}}
	}
	return id, nil
}

// queryParser collects query parameter errors so a handler can report all
// of them at once.
type queryParser struct {
	c      echo.Context
	fields map[string]string
}

func newQueryParser(c echo.Context) *queryParser {
	return &queryParser{c: c, fields: map[string]string{}}
}

// uint returns 0 when the parameter is absent.
func (q *queryParser) uint(name string) uint64 {
	raw := strings.TrimSpace(q.c.QueryParam(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		q.fields[name] = "must be a positive integer"
	}
	return n
}

// date returns nil when the parameter is absent.
func (q *queryParser) date(name string) *time.Time {
	raw := strings.TrimSpace(q.c.QueryParam(name))
	if raw == "" {
		return nil
	}
	d, err := service.ParseDate(raw)
	if err != nil {
		q.fields[name] = "must be YYYY-MM-DD"
		return nil
	}
	return &d
}

func (q *queryParser) err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return &service.ValidationError{Message: "Invalid query parameters", Fields: q.fields}
}

func derefDate(d *time.Time) time.Time {
	if d == nil {
		return time.Time{}
	}
	return *d
}
