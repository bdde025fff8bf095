package admin

import "github.com/labstack/echo/v4"

// RegisterRoutes wires the admin API. Login is public; everything else sits
// behind adminAuth.
func RegisterRoutes(g *echo.Group, h *Handler, adminAuth echo.MiddlewareFunc) {

	// Session
	g.POST("/login", h.Login)

	a := g.Group("", adminAuth)
	a.POST("/change-password", h.ChangePassword)
	a.GET("/me", h.Me)

	// Dashboard
	a.GET("/stats", h.GetStats)

	// Licenses
	a.GET("/licenses", h.GetLicenses)
	a.GET("/licenses/:id", h.GetLicense)
	a.POST("/licenses", h.CreateLicense)
	a.PUT("/licenses/:id", h.UpdateLicense)
	a.DELETE("/licenses/:id", h.DeleteLicense)
	a.POST("/licenses/:id/block", h.BlockLicense)
	a.POST("/licenses/:id/unblock", h.UnblockLicense)
	a.POST("/licenses/:id/reset-hardware", h.ResetHardware)

	// Plans
	a.GET("/plans", h.GetPlans)

	// Backup
	a.POST("/backup", h.BackupDatabase)
}
