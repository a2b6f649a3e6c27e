package router

import (
	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/handler"
	"github.com/salonhub/salon-booking-platform/internal/middleware"
)

// RegisterOwner registers salon management for owners: services,
// staff, and staff working-hours windows.  Ownership of the touched
// salon is enforced in the repository layer, so a valid OWNER token is
// necessary but not sufficient.
func RegisterOwner(e *echo.Echo, s *handler.ScheduleHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/owner")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OWNER"))

	g.POST("/salons/:id/services", s.CreateService)
	g.POST("/salons/:id/staff", s.CreateStaff)

	g.GET("/staff/:id/windows", s.ListWindows)
	g.POST("/staff/:id/windows", s.CreateWindow)
	g.DELETE("/windows/:id", s.DeleteWindow)

	g.POST("/bookings/:id/complete", b.Complete)
}
