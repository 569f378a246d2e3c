package utils

import (
	"time"

	"github.com/seenimoa/companydash/pkg/models"
)

// NewYork is the US Eastern time location used for "today".
var NewYork *time.Location

func init() {
	var err error
	NewYork, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST when the tz database is not available.
		NewYork = time.FixedZone("EST", -5*60*60)
	}
}

// Today returns the current US Eastern calendar date at midnight UTC.
func Today() time.Time {
	return TodayAt(time.Now())
}

// TodayAt returns the US Eastern calendar date of t at midnight UTC.
func TodayAt(t time.Time) time.Time {
	return models.CalendarDate(t.In(NewYork))
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}
