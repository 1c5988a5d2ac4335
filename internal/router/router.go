// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/handler"
	"github.com/example/table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication: the
// health check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated
// operations live under /v1/auth; token-protected account endpoints live
// under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/change-password", a.ChangePassword)
}

// RegisterPublic registers the unauthenticated availability check. The
// cache middleware is passed in so guests browsing free tables do not
// hammer the database.
func RegisterPublic(e *echo.Echo, av *handler.AvailabilityHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/availability", av.Check, cache)
}
