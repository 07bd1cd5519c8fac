package domain

import "time"

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// DateOf drops the time of day from t, keeping the calendar date as seen in t's
// location, and returns it as midnight UTC. Booking dates are compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Errorf(ErrInvalidArgument, "invalid date %q", s)
	}
	return t, nil
}

// IsPast reports whether date lies strictly before today.
func IsPast(date, today time.Time) bool {
	return DateOf(date).Before(DateOf(today))
}
