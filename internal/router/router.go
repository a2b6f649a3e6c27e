package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/handler"
	"github.com/salonhub/salon-booking-platform/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers to
// verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; /v1/me requires a
// valid access token for any role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access issues a new
	// access token without rotating.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes the refresh token in the body, so it does not need
	// JWT authentication.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse and callback
// endpoints: salon catalog, staff schedules, bookable slots, vendor
// activation, and the payment processor webhook.  The webhook and the
// activation endpoint authenticate by signature and token respectively,
// not by session.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, b *handler.BookingHandler,
	v *handler.VendorHandler, p *handler.PaymentHandler) {
	e.GET("/v1/salons/:id", cat.GetSalon)
	e.GET("/v1/salons/:id/services", cat.GetServices)
	e.GET("/v1/salons/:id/staff", cat.GetStaff)
	e.GET("/v1/staff/:id/windows", cat.GetStaffWindows)
	// Slot discovery is advisory; the reservation re-checks under lock.
	e.GET("/v1/staff/:id/slots", b.GetSlots)

	e.POST("/v1/vendor/activate", v.Activate)
	e.POST("/v1/payments/webhook", p.Webhook)
}
