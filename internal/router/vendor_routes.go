package router

import (
	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/handler"
	"github.com/salonhub/salon-booking-platform/internal/middleware"
)

// RegisterVendor registers the field-agent onboarding surface.  The
// request detail endpoint also admits admins; the service layer limits
// agents to their own requests.
func RegisterVendor(e *echo.Echo, v *handler.VendorHandler, adm *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/vendor-requests")
	g.Use(middleware.JWTAuth(jwtSecret))

	agent := g.Group("", middleware.RequireRole("AGENT"))
	agent.POST("", v.Submit)
	agent.GET("", v.ListMine)

	shared := g.Group("", middleware.RequireRole("AGENT", "ADMIN"))
	shared.GET("/:id", v.Get)
	shared.POST("/:id/payment-order", v.CreatePaymentOrder)

	// Agents read their own performance ledger here; the admin group
	// exposes the same data for any agent.
	me := e.Group("/v1/agent")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.Use(middleware.RequireRole("AGENT"))
	me.GET("/profile", adm.MyProfile)
	me.GET("/history", adm.MyHistory)
}

// RegisterAdmin registers the back office: the approval queue,
// platform settings, and the agent performance ledger.
func RegisterAdmin(e *echo.Echo, adm *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.GET("/vendor-requests", adm.Queue)
	g.POST("/vendor-requests/:id/approve", adm.Approve)
	g.POST("/vendor-requests/:id/reject", adm.Reject)

	g.GET("/settings", adm.GetSettings)
	g.PUT("/settings", adm.UpdateSettings)

	g.GET("/payments/check", adm.CheckPayments)

	g.GET("/agents/:id", adm.AgentProfile)
	g.GET("/agents/:id/history", adm.AgentHistory)
	g.GET("/agents/:id/verify", adm.VerifyAgent)
	g.GET("/leaderboard", adm.Leaderboard)
}
