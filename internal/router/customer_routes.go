package router

import (
	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/handler"
	"github.com/salonhub/salon-booking-platform/internal/middleware"
)

// RegisterCustomer registers the customer booking and payment flow.
// All routes require a CUSTOMER access token.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("CUSTOMER"))

	g.POST("/bookings", b.Reserve)
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)

	// Client-side callback after checkout, and order status polling
	// for ambiguous outcomes.
	g.POST("/payments/verify", p.Verify)
	g.GET("/payments/:order_ref", p.Status)
}
