package middleware // middleware holds the echo middleware shared by the admin and public routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

// actorKey is the echo context key under which JWTAuth stores the caller.
const actorKey = "actor"

// JWTAuth validates a Bearer access token and stores the caller as a
// model.Actor in the context.  The actor is built once here; handlers and
// services only ever see the normalized location set.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, _ := claims.UserID() // validated by ParseAccessToken
			c.Set(actorKey, model.NewActor(id, claims.Role, claims.Locations))
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller.  ok is false on routes that
// are not behind JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(actorKey).(model.Actor)
	return a, ok
}

// WithActor stores an actor in the context.  It is meant for tests and for
// internal callers that authenticate by other means.
func WithActor(c echo.Context, a model.Actor) { c.Set(actorKey, a) }
