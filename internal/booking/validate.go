package booking

import (
	"strings"
	"time"

	"github.com/example/table-reservation/internal/inventory"
)

// dateLayout is the wire and storage format for reservation dates. Dates
// carry no time-zone component; "later than today" is evaluated against
// the server's local calendar date.
const dateLayout = "2006-01-02"

// Validator checks booking requests against the business rules: the date
// must be strictly later than today, the hour must be a member of the
// allowed-hours set and the party size must be a configured inventory
// size. It is pure; the only ambient input is the clock.
type Validator struct {
	hours  map[int]bool
	policy *inventory.Policy
	now    func() time.Time
}

// NewValidator builds a Validator for the given allowed hours and
// inventory policy. The hours are kept as an enumerated set rather than a
// range so non-contiguous opening hours keep working. A nil now falls
// back to time.Now.
func NewValidator(hours []int, policy *inventory.Policy, now func() time.Time) *Validator {
	set := make(map[int]bool, len(hours))
	for _, h := range hours {
		set[h] = true
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{hours: set, policy: policy, now: now}
}

// DefaultHours is the enumerated set of bookable hours used when no
// ALLOWED_HOURS configuration is provided: 10:00 through 22:00 inclusive.
func DefaultHours() []int {
	hours := make([]int, 0, 13)
	for h := 10; h <= 22; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Validate checks (date, hour, partySize) and returns nil when the
// request is bookable. On failure it returns a *ValidationError whose
// reason distinguishes missing input, bad date, bad time and bad guest
// count. The normalized date string is returned so callers store a
// canonical YYYY-MM-DD value.
func (v *Validator) Validate(date string, hour, partySize int) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", &ValidationError{Reason: ReasonMissingField}
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", &ValidationError{Reason: ReasonBadDate}
	}
	// Same-day and past bookings are rejected; compare calendar dates only.
	today := v.now()
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !d.After(todayMidnight) {
		return "", &ValidationError{Reason: ReasonBadDate}
	}
	if !v.hours[hour] {
		return "", &ValidationError{Reason: ReasonBadTime}
	}
	if !v.policy.Valid(partySize) {
		return "", &ValidationError{Reason: ReasonBadPartySize}
	}
	return d.Format(dateLayout), nil
}
