// Package estimate converts a flash-to-bang delay into a distance.
package estimate

// Speed of sound in dry air, linear in temperature.
const (
	speedAtZeroC   = 331.0 // m/s at 0°C
	speedPerDegree = 0.6   // m/s per °C
)

// Estimate is the result of a distance calculation.
type Estimate struct {
	FlashTime    float64 // seconds
	SoundTime    float64 // seconds
	TemperatureC float64
	Delay        float64 // seconds, SoundTime - FlashTime
	SpeedOfSound float64 // m/s
	Meters       float64
}

// SpeedOfSound returns the approximate speed of sound in m/s at tempC.
func SpeedOfSound(tempC float64) float64 {
	return speedAtZeroC + speedPerDegree*tempC
}

// Distance estimates the distance to the source of a flash and its report.
// A sound time earlier than the flash time yields a negative distance; the
// value is returned unchanged and NonPositiveDelay reports it.
func Distance(flashTime, soundTime, tempC float64) Estimate {
	delay := soundTime - flashTime
	speed := SpeedOfSound(tempC)
	return Estimate{
		FlashTime:    flashTime,
		SoundTime:    soundTime,
		TemperatureC: tempC,
		Delay:        delay,
		SpeedOfSound: speed,
		Meters:       delay * speed,
	}
}

// Kilometers returns the distance in kilometers.
func (e Estimate) Kilometers() float64 {
	return e.Meters / 1000
}

// NonPositiveDelay reports whether the sound was detected at or before the
// flash, which points to a detection error rather than a real distance.
func (e Estimate) NonPositiveDelay() bool {
	return e.Delay <= 0
}
