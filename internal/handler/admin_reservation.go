package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/booking"
)

// AdminHandler exposes administrator-only views over reservations. Routes
// using it are guarded by the ADMIN role middleware.
type AdminHandler struct {
	Manager *booking.Manager
}

func NewAdminHandler(m *booking.Manager) *AdminHandler {
	if m == nil {
		panic("nil manager passed to NewAdminHandler")
	}
	return &AdminHandler{Manager: m}
}

// ListAll handles GET /v1/admin/reservations: every reservation in the
// system, newest date first.
func (h *AdminHandler) ListAll(c echo.Context) error {
	items, err := h.Manager.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
