// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// Handlers are the route targets.
type Handlers struct {
	Health   echo.HandlerFunc
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Checkout *handler.CheckoutHandler
	Bookings *handler.BookingHandler
	Admin    *handler.AdminHandler
	Notify   *handler.NotifyHandler
}

// Options configure the shared middleware.  A nil Redis client turns
// caching and rate limiting into no-ops.
type Options struct {
	JWTSecret         string
	Redis             *redis.Client
	Cache             config.CacheConfig
	RateLimit         config.RateLimitConfig
	CheckoutRateLimit config.RateLimitConfig
	Clock             clock.Clock
}

// Register mounts every route.
func Register(e *echo.Echo, h Handlers, o Options) {
	e.Use(middleware.NewTokenBucket(o.RateLimit, o.Redis, o.Clock))
	e.GET("/healthz", h.Health)

	registerAuth(e, h.Auth, o.JWTSecret)
	registerPublic(e, h.Events, o)
	registerCustomer(e, h, o)
	registerAdmin(e, h, o.JWTSecret)
}

// registerAuth mounts token issuance under /v1/auth and the profile under
// /v1/me.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, secret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token or a bearer, so it sits
	// outside the JWT group.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(secret))
}

// registerPublic mounts the catalogue.  Responses are cached in Redis;
// the seat map uses a much shorter TTL since every booking changes it.
func registerPublic(e *echo.Echo, ev *handler.EventHandler, o Options) {
	cache := middleware.NewRedisCache(o.Cache, o.Redis)
	seatsTTL := o.Cache.SeatsTTL
	if seatsTTL <= 0 {
		seatsTTL = o.Cache.TTL
	}
	seatCache := middleware.NewRedisCache(o.Cache.WithTTL(seatsTTL), o.Redis)

	e.GET("/v1/events", ev.List, cache)
	e.GET("/v1/events/:id", ev.Get, cache)
	e.GET("/v1/events/:id/seats", ev.Seats, seatCache)
}

func registerCustomer(e *echo.Echo, h Handlers, o Options) {
	auth := middleware.JWTAuth(o.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleCustomer, model.RoleAdmin)

	co := e.Group("/v1/checkout", auth, anyRole,
		middleware.NewTokenBucket(o.CheckoutRateLimit, o.Redis, o.Clock))
	co.POST("/orders", h.Checkout.CreateOrder)
	co.POST("/verify", h.Checkout.Verify)

	e.GET("/v1/my-bookings", h.Bookings.Mine, auth, anyRole)
	b := e.Group("/v1/bookings", auth, anyRole)
	b.GET("/:id", h.Bookings.Get)
	b.GET("/:id/qr.png", h.Bookings.QR)
	b.GET("/:id/ticket.pdf", h.Bookings.PDF)
}

func registerAdmin(e *echo.Echo, h Handlers, secret string) {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(secret), middleware.RequireRole(model.RoleAdmin)}

	a := e.Group("/v1/admin", mw...)
	a.POST("/events", h.Admin.CreateEvent)
	a.PUT("/events/:id", h.Admin.UpdateEvent)
	a.GET("/events/:id/bookings", h.Admin.EventBookings)
	a.POST("/bookings/:id/check-in", h.Admin.CheckIn)
	a.POST("/check-in/scan", h.Admin.Scan)

	n := e.Group("/v1/notify", mw...)
	n.POST("/ticket-confirmation", h.Notify.TicketConfirmation)
	n.POST("/checkin-confirmation", h.Notify.CheckInConfirmation)
}
