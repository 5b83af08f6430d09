package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/handler"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth         *handler.AuthHandler
	Availability *handler.AvailabilityHandler
	Bookings     *handler.BookingHandler
	Schedules    *handler.ScheduleHandler
	TimeSlots    *handler.TimeSlotHandler
}

// Options carries the shared infrastructure.  Redis may be nil, in which
// case rate limiting and caching are disabled.
type Options struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	DB        handler.Pinger
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers, o Options) {
	RegisterRoutes(e, o.DB)
	limiter := middleware.NewTokenBucket(o.RateLimit, o.Redis)
	RegisterAuth(e, h.Auth, limiter)
	RegisterPublic(e, h.Availability, limiter, middleware.NewRedisCache(o.Cache, o.Redis))
	RegisterAdmin(e, h, o.JWTSecret, limiter, middleware.InvalidateCache(o.Cache, o.Redis))
}

// RegisterRoutes registers routes that need neither authentication nor
// rate limiting.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the login endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/login", a.Login)
}

// RegisterPublic registers the unauthenticated availability reads.  They
// are the only cached routes; booked slots are never exposed here.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, limiter, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", limiter)
	g.GET("/availability", a.Public, cache)
	g.GET("/timeslots", a.TimeSlots, cache)
}

// RegisterAdmin registers the booking, schedule and catalog routes.  Every
// route requires a valid access token with an admin role; location scoping
// is applied by the services.  Catalog writes are reserved for super admins.
// Booking and catalog writes invalidate the public availability cache.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string, limiter, invalidate echo.MiddlewareFunc) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSuperAdmin, model.RoleAdmin),
		limiter,
	)

	g.GET("/availability", h.Availability.Admin)
	g.GET("/screens/available", h.Availability.FreeScreens)

	g.GET("/bookings", h.Bookings.List)
	g.POST("/bookings", h.Bookings.Create, invalidate)
	g.GET("/bookings/:id", h.Bookings.Get)
	g.PUT("/bookings/:id", h.Bookings.Update, invalidate)
	g.DELETE("/bookings/:id", h.Bookings.Cancel, invalidate)

	g.GET("/schedules", h.Schedules.List)
	g.POST("/schedules", h.Schedules.Generate)

	superOnly := middleware.RequireRole(model.RoleSuperAdmin)
	g.GET("/slots", h.TimeSlots.List)
	g.POST("/slots", h.TimeSlots.Create, superOnly, invalidate)
	g.PUT("/slots/:id", h.TimeSlots.Update, superOnly, invalidate)
}
