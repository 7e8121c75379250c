package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/handler"
)

// RegisterRoutes registers routes that require no authentication at
// all.  Currently that is only the health check used by load balancers
// and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers staff authentication.  Login lives outside
// the admin group; Me sits behind the same JWT middleware the admin
// surface uses so dashboards can validate a stored token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, adminAuth echo.MiddlewareFunc) {
	e.POST("/v1/auth/login", a.Login)
	e.GET("/v1/me", a.Me, adminAuth)
}
