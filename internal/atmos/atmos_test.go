package atmos

import (
	"math"
	"testing"
)

func TestSatVaporPressure(t *testing.T) {
	tests := []struct {
		name     string
		t        float64
		expected float64
		epsilon  float64
	}{
		{name: "freezing point", t: 0, expected: 610.78, epsilon: 0.01},
		{name: "20C", t: 20, expected: 2337, epsilon: 5},
		{name: "boiling is far above", t: 100, expected: 101000, epsilon: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SatVaporPressure(tt.t)
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("expected %.2f ± %.2f, got %.2f", tt.expected, tt.epsilon, got)
			}
		})
	}
}

func TestSatVaporPressureIceBelowWater(t *testing.T) {
	for _, temp := range []float64{-1, -5, -20} {
		if SatVaporPressureIce(temp) >= SatVaporPressure(temp) {
			t.Errorf("at %v °C ice saturation pressure should be below water", temp)
		}
	}
	if SatVaporPressureIce(5) != SatVaporPressure(5) {
		t.Error("above freezing the ice curve should match water")
	}
}

func TestVaporPressure(t *testing.T) {
	if got := VaporPressure(20, 1200, 500); got != 1200 {
		t.Errorf("supplied vapor pressure should win, got %v", got)
	}
	want := SatVaporPressure(20) - 500
	if got := VaporPressure(20, 0, 500); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v derived from deficit, got %v", want, got)
	}
}

func TestSensibleHeat(t *testing.T) {
	if got := SensibleHeat(1.2, 20, 10, 50); got <= 0 {
		t.Errorf("warm air over cold surface should heat it, got %v", got)
	}
	if got := SensibleHeat(1.2, 20, 10, 0); got != 0 {
		t.Errorf("zero resistance is guarded, got %v", got)
	}
}

func TestLongwaveOut(t *testing.T) {
	got := LongwaveOut(1, 0)
	if math.Abs(got-315.6) > 0.5 {
		t.Errorf("expected ~315.6 W/m² at 0 °C, got %v", got)
	}
}
