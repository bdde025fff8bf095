package client

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all client-facing endpoints under the given Echo group.
// The activateLimit middleware applies only to activation, on top of any
// group-level limits.
func RegisterRoutes(g *echo.Group, h *Handler, activateLimit echo.MiddlewareFunc) {

	// Binds a key to a machine
	g.POST("/activate", h.Activate, activateLimit)

	// Periodic check from an installed application
	g.POST("/validate", h.Validate)

	// Status lookup without a hardware id
	g.POST("/check", h.Check)
}
