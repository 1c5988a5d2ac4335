package router

import (
	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/handler"
	"github.com/example/table-reservation/internal/middleware"
	"github.com/example/table-reservation/internal/model"
)

// RegisterReservations registers the booking endpoints under /v1. All
// routes require a valid JWT; both roles may book and cancel (the core
// decides whose reservations an actor may cancel).
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.POST("/reservations", h.Book)
	g.GET("/my-reservations", h.ListMine)
	g.DELETE("/reservations/:id", h.Cancel)
}

// RegisterAdmin registers administrator-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/reservations", h.ListAll)
}
