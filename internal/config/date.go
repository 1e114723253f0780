package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// dateLayout is the calendar date format used by the weather API and the CSV log.
const dateLayout = "2006-01-02"

// DateSpec selects the day used for the temperature lookup: either a number of
// days before today, or an explicit calendar date.
type DateSpec struct {
	offsetDays int
	date       time.Time
	explicit   bool
}

// OffsetDays returns a DateSpec n days before today.
func OffsetDays(n int) DateSpec {
	return DateSpec{offsetDays: n}
}

// OnDate returns a DateSpec for an explicit calendar date.
func OnDate(t time.Time) DateSpec {
	return DateSpec{
		date:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		explicit: true,
	}
}

// IsExplicit reports whether the spec names a calendar date.
func (d DateSpec) IsExplicit() bool {
	return d.explicit
}

// Offset returns the day offset. Zero for explicit dates.
func (d DateSpec) Offset() int {
	return d.offsetDays
}

// Resolve returns the target calendar day relative to now (UTC).
func (d DateSpec) Resolve(now time.Time) time.Time {
	if d.explicit {
		return d.date
	}
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -d.offsetDays)
}

// String describes the spec for log output.
func (d DateSpec) String() string {
	if d.explicit {
		return d.date.Format(dateLayout)
	}
	return fmt.Sprintf("%d day(s) ago", d.offsetDays)
}

// numericLayouts are tried before dateparse, day first. "2" and "1" also
// match two-digit days and months.
var numericLayouts = []string{"2.1.2006", "2-1-2006", "2/1/2006"}

// monthFirstLayouts apply when the day-first reading is invalid, e.g.
// "02/13/2024".
var monthFirstLayouts = []string{"1.2.2006", "1-2-2006", "1/2/2006"}

// FormatDate formats a day the way the weather API and CSV log expect.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseWeatherDate parses the --temp argument. An integer is a day offset
// into the past; anything else is parsed as a date, day first.
func ParseWeatherDate(s string) (DateSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateSpec{}, ferrors.NewArgumentError("invalid format for --temp (use int or date string)")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return OffsetDays(n), nil
	}

	if t, ok := parseNumericDate(s); ok {
		return OnDate(t), nil
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return DateSpec{}, ferrors.NewArgumentError(fmt.Sprintf("invalid format for --temp %q (use int or date string)", s))
	}
	return OnDate(t), nil
}

// parseNumericDate handles dd.mm.yyyy, dd-mm-yyyy and dd/mm/yyyy, falling
// back to month first when the day-first reading is not a valid date.
func parseNumericDate(s string) (time.Time, bool) {
	for _, layout := range numericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range monthFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
