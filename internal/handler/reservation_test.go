package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/example/table-reservation/internal/booking"
	"github.com/example/table-reservation/internal/inventory"
	"github.com/example/table-reservation/internal/model"
)

func reservationHandler(t *testing.T) *ReservationHandler {
	t.Helper()
	policy, err := inventory.New(map[int]int{4: 5})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	validator := booking.NewValidator(booking.DefaultHours(), policy, nil)
	m := booking.NewManager(&stubStore{}, policy, validator)
	return NewReservationHandler(m)
}

func doBook(t *testing.T, h *ReservationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleUser)
	if err := h.Book(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestBook_AbsentFieldsReportMissingInput(t *testing.T) {
	h := reservationHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"no hour", `{"date":"` + tomorrowDate() + `","party_size":4}`},
		{"no party size", `{"date":"` + tomorrowDate() + `","hour":19}`},
		{"empty object", `{}`},
	}
	for _, tc := range cases {
		rec := doBook(t, h, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), "missing date or time") {
			t.Errorf("%s: expected missing-input message, got %s", tc.name, rec.Body.String())
		}
	}
}

func TestBook_ExplicitZeroHourIsBadTimeNotMissing(t *testing.T) {
	h := reservationHandler(t)

	rec := doBook(t, h, `{"date":"`+tomorrowDate()+`","hour":0,"party_size":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid time") {
		t.Fatalf("expected bad-time message for an explicit 0 hour, got %s", rec.Body.String())
	}
}

func TestBook_ValidRequestCreated(t *testing.T) {
	h := reservationHandler(t)

	rec := doBook(t, h, `{"date":"`+tomorrowDate()+`","hour":19,"party_size":4}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"reservation"`) {
		t.Fatalf("expected reservation payload, got %s", rec.Body.String())
	}
}
