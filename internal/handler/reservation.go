package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/booking"
	"github.com/example/table-reservation/internal/queue"
	queuepub "github.com/example/table-reservation/internal/service"
)

// ReservationHandler exposes booking, listing and cancellation endpoints
// on top of the booking core. JWT authentication and role checks are
// performed by middleware; the handler passes actor id and role into the
// core as plain values.
type ReservationHandler struct {
	Manager *booking.Manager
}

// NewReservationHandler constructs a ReservationHandler. The manager must
// be non-nil.
func NewReservationHandler(m *booking.Manager) *ReservationHandler {
	if m == nil {
		panic("nil manager passed to NewReservationHandler")
	}
	return &ReservationHandler{Manager: m}
}

// Numeric fields are pointers so an absent field is distinguishable from an
// explicit zero: "hour": 0 is a bad time, no "hour" at all is missing input.
type bookReq struct {
	Date      string `json:"date"`       // YYYY-MM-DD
	Hour      *int   `json:"hour"`       // hour of day
	PartySize *int   `json:"party_size"` // number of guests
}

// Book handles POST /v1/reservations. It admits the request through the
// booking manager and returns 201 with the reservation, 400 on validation
// failure or 409 when the bucket is full.
func (h *ReservationHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Hour == nil || req.PartySize == nil {
		ve := &booking.ValidationError{Reason: booking.ReasonMissingField}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	}

	ctx := c.Request().Context()
	res, err := h.Manager.AttemptBook(ctx, req.Date, *req.Hour, *req.PartySize, userID)
	if err != nil {
		if ve, ok := booking.AsValidation(err); ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
		}
		if errors.Is(err, booking.ErrNoCapacity) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "no tables are available for this date, time and party size",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	// Publish the confirmation event; booking succeeds even when the
	// broker is down.
	go func(ev queue.ReservationConfirmedEvent) {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepub.PublishReservationConfirmed(pubCtx, ev)
	}(queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Date:          res.Date,
		Hour:          res.Hour,
		PartySize:     res.PartySize,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"reservation": res})
}

// ListMine handles GET /v1/my-reservations: the caller's reservations,
// newest date first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Manager.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel handles DELETE /v1/reservations/:id. Owners cancel their own
// reservations; administrators cancel any. Returns 204 on success, 404
// for unknown ids and 403 for foreign reservations.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	switch err := h.Manager.AttemptCancel(c.Request().Context(), resID, userID, role); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only cancel your own reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}
}
