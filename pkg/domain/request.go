package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDuration caps the number of days a single request may plan for.
const MaxDuration = 60

// DefaultPurpose is used when the traveller does not pick one.
const DefaultPurpose = "sightseeing"

// TripRequest holds the constraints submitted by the presentation layer.
// It is treated as immutable once it has been validated.
type TripRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Budget      float64 `json:"budget"`
	Duration    int     `json:"duration"` // days
	Purpose     string  `json:"purpose"`
	// Notes carries free-form additional requests ("vegetarian", "no long hikes").
	Notes string `json:"notes,omitempty"`
}

// Validate checks the request and returns a sanitized copy of it.
// Every error wraps ErrInvalidRequest.
func (r TripRequest) Validate() (TripRequest, error) {
	out := r

	fields := []struct {
		name     string
		value    *string
		required bool
	}{
		{"origin", &out.Origin, true},
		{"destination", &out.Destination, true},
		{"purpose", &out.Purpose, false},
		{"notes", &out.Notes, false},
	}
	for _, f := range fields {
		clean, err := SanitizeInput(*f.value)
		if err != nil {
			return TripRequest{}, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, f.name, err)
		}
		clean = strings.TrimSpace(clean)
		if f.required && clean == "" {
			return TripRequest{}, fmt.Errorf("%w: %s is required", ErrInvalidRequest, f.name)
		}
		*f.value = clean
	}

	if out.Budget < 0 || math.IsNaN(out.Budget) || math.IsInf(out.Budget, 0) {
		return TripRequest{}, fmt.Errorf("%w: budget must not be negative", ErrInvalidRequest)
	}
	if out.Duration < 1 || out.Duration > MaxDuration {
		return TripRequest{}, fmt.Errorf("%w: duration must be between 1 and %d days", ErrInvalidRequest, MaxDuration)
	}
	if out.Purpose == "" {
		out.Purpose = DefaultPurpose
	}

	return out, nil
}

// Nights returns the number of nights implied by Duration.
func (r TripRequest) Nights() int {
	if r.Duration <= 1 {
		return 0
	}
	return r.Duration - 1
}

// DurationLabel renders the stay the way travel agents phrase it ("day trip", "2 nights / 3 days").
func (r TripRequest) DurationLabel() string {
	if r.Duration <= 1 {
		return "day trip"
	}
	nights := r.Nights()
	if nights == 1 {
		return fmt.Sprintf("1 night / %d days", r.Duration)
	}
	return fmt.Sprintf("%d nights / %d days", nights, r.Duration)
}

// BudgetLabel formats the budget in yen with thousands separators. Zero means "no limit given".
func (r TripRequest) BudgetLabel() string {
	if r.Budget <= 0 {
		return "not specified"
	}
	digits := strconv.FormatInt(int64(math.Round(r.Budget)), 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return "¥" + b.String()
}
