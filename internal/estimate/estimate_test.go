package estimate

import (
	"math"
	"testing"
)

func TestSpeedOfSound(t *testing.T) {
	tests := []struct {
		tempC float64
		want  float64
	}{
		{0, 331},
		{20, 343},
		{-10, 325},
		{35, 352},
	}

	for _, tt := range tests {
		if got := SpeedOfSound(tt.tempC); got != tt.want {
			t.Errorf("SpeedOfSound(%v) = %v, want %v", tt.tempC, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	got := Distance(1.0, 3.0, 20.0)

	if got.Meters != 686.0 {
		t.Errorf("Distance(1, 3, 20).Meters = %v, want 686", got.Meters)
	}
	if got.Delay != 2.0 {
		t.Errorf("Delay = %v, want 2", got.Delay)
	}
	if got.SpeedOfSound != 343.0 {
		t.Errorf("SpeedOfSound = %v, want 343", got.SpeedOfSound)
	}
	if got.Kilometers() != 0.686 {
		t.Errorf("Kilometers() = %v, want 0.686", got.Kilometers())
	}
	if got.NonPositiveDelay() {
		t.Error("positive delay flagged as non-positive")
	}
}

func TestDistanceIsLinearInDelay(t *testing.T) {
	for _, temp := range []float64{-20, 0, 12.5, 30} {
		one := Distance(0, 1, temp).Meters
		two := Distance(0, 2, temp).Meters
		if two != 2*one {
			t.Errorf("temp %v: Distance(0,2)=%v, want 2*%v", temp, two, one)
		}
	}
}

func TestDistanceNegativeDelay(t *testing.T) {
	got := Distance(2.5, 1.5, 10)

	if got.Meters >= 0 {
		t.Errorf("expected negative distance, got %v", got.Meters)
	}
	if math.Abs(got.Meters-(-337)) > 1e-9 {
		t.Errorf("Meters = %v, want -337", got.Meters)
	}
	if !got.NonPositiveDelay() {
		t.Error("negative delay should be flagged")
	}
	if !Distance(1, 1, 10).NonPositiveDelay() {
		t.Error("zero delay should be flagged")
	}
}
