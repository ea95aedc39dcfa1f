package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mailtriage/mailtriage/internal/apperr"
)

const dateOnly = "2006-01-02"

// parseDate parses an RFC 3339 timestamp or a calendar date. A calendar
// date used as an upper bound means the end of that day (UTC).
func parseDate(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, apperr.New(apperr.ValidationFailed, key+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// parseDateRange reads start_date and end_date.
func parseDateRange(q url.Values) (start, end *time.Time, err error) {
	if start, err = parseDate(q, "start_date", false); err != nil {
		return nil, nil, err
	}
	if end, err = parseDate(q, "end_date", true); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// parseInt returns the integer value of key, or 0 when absent or invalid.
// Callers normalize 0 to their default.
func parseInt(q url.Values, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil {
		return 0
	}
	return n
}
