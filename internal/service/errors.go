package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carenest/internal/apperr"
)

// storeErr converts a repository error into the application taxonomy. A
// missing row becomes NotFound with msg, anything else is an upstream fault.
func storeErr(err error, action, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Upstream(fmt.Sprintf("failed to %s", action), err)
}

// parseDay parses a YYYY-MM-DD filter into the whole day in loc.
func parseDay(value string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
}
