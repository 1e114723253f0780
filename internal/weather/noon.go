package weather

import (
	"fmt"
	"strings"
	"time"

	ferrors "github.com/five82/flashbang/internal/errors"
)

// noonHour is the preferred sampling hour.
const noonHour = 12

// Sample is one hourly reading. Temperature is nil when the service has no
// value for that hour.
type Sample struct {
	Time        string
	Temperature *float64
}

// sampleHour parses the clock part of "2024-01-01T12:00" or "12:00".
func sampleHour(s string) (hour, minute int, ok bool) {
	if _, after, found := strings.Cut(s, "T"); found {
		s = after
	}
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// SelectNoon picks the sample at exactly 12:00. When there is none, it picks
// the non-missing sample whose hour is closest to noon, preferring the
// earlier hour on a tie, and reports fallback=true.
func SelectNoon(samples []Sample) (chosen Sample, fallback bool, err error) {
	if len(samples) == 0 {
		return Sample{}, false, ferrors.NewWeatherUnavailableError("hourly temperature data is missing", nil)
	}

	for _, s := range samples {
		if s.Temperature == nil {
			continue
		}
		if h, m, ok := sampleHour(s.Time); ok && h == noonHour && m == 0 {
			return s, false, nil
		}
	}

	bestIdx, bestDist, bestHour := -1, 0, 0
	for i, s := range samples {
		if s.Temperature == nil {
			continue
		}
		h, _, ok := sampleHour(s.Time)
		if !ok {
			continue
		}
		d := abs(h - noonHour)
		if bestIdx < 0 || d < bestDist || (d == bestDist && h < bestHour) {
			bestIdx, bestDist, bestHour = i, d, h
		}
	}

	if bestIdx < 0 {
		return Sample{}, false, ferrors.NewWeatherUnavailableError(
			fmt.Sprintf("all %d temperature samples are missing", len(samples)), nil)
	}
	return samples[bestIdx], true, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
