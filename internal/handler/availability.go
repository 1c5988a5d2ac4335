package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/booking"
)

// AvailabilityHandler exposes the public remaining-capacity check. The
// route sits behind the response cache middleware; the numbers it serves
// are advisory, admission always re-checks under the bucket lock.
type AvailabilityHandler struct {
	Manager *booking.Manager
}

func NewAvailabilityHandler(m *booking.Manager) *AvailabilityHandler {
	if m == nil {
		panic("nil manager passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Manager: m}
}

// Check handles GET /v1/availability?date=&hour=&party_size=. It returns
// the number of tables still free in the requested bucket, or 400 with a
// specific message when the request breaks a business rule.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	date := c.QueryParam("date")
	hourStr := c.QueryParam("hour")
	sizeStr := c.QueryParam("party_size")
	if date == "" || hourStr == "" || sizeStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date, hour and party_size are required"})
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
	}
	partySize, err := strconv.Atoi(sizeStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid count of guests"})
	}

	remaining, err := h.Manager.RemainingCapacity(c.Request().Context(), date, hour, partySize)
	if err != nil {
		if ve, ok := booking.AsValidation(err); ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"date":       date,
		"hour":       hour,
		"party_size": partySize,
		"remaining":  remaining,
	})
}
