package velodyne

import (
	"math"
	"testing"
)

func TestAzimuthInWindow(t *testing.T) {
	tests := []struct {
		name           string
		code, min, max int
		want           bool
	}{
		{"inside simple window", 150, 100, 200, true},
		{"below simple window", 50, 100, 200, false},
		{"above simple window", 500, 100, 200, false},
		{"window edges inclusive", 100, 100, 200, true},
		{"wraparound near zero", 100, ROTATION_MAX_UNITS - 100, 200, true},
		{"wraparound near max", ROTATION_MAX_UNITS - 50, ROTATION_MAX_UNITS - 100, 200, true},
		{"wraparound excluded", 18000, ROTATION_MAX_UNITS - 100, 200, false},
		{"normalized full circle", 150, 100, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := azimuthInWindow(tt.code, tt.min, tt.max); got != tt.want {
				t.Errorf("azimuthInWindow(%d, %d, %d) = %v, want %v", tt.code, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestParametersFullCircle(t *testing.T) {
	// a full-width view and a zero-width view both degenerate to equal gate
	// codes and must be normalized to the full circle, never an empty window
	for _, width := range []float64{2 * math.Pi, 0} {
		cfg := Parameters{ViewWidth: width}.toConfig()
		if cfg.minAngle != 0 || cfg.maxAngle != ROTATION_MAX_UNITS {
			t.Errorf("width %f: expected full-circle window, got [%d, %d]", width, cfg.minAngle, cfg.maxAngle)
		}
		if !azimuthInWindow(18000, cfg.minAngle, cfg.maxAngle) {
			t.Errorf("width %f: full-circle window must accept every code", width)
		}
	}
}

func TestParametersWraparoundWindow(t *testing.T) {
	// 90 degrees centered on mathematical angle zero converts to a hardware
	// window wrapping through code zero
	cfg := Parameters{ViewDirection: 0, ViewWidth: math.Pi / 2}.toConfig()
	if cfg.minAngle <= cfg.maxAngle {
		t.Fatalf("expected wraparound window, got [%d, %d]", cfg.minAngle, cfg.maxAngle)
	}
	if !azimuthInWindow(0, cfg.minAngle, cfg.maxAngle) {
		t.Error("code 0 must be inside the window")
	}
	if !azimuthInWindow(4000, cfg.minAngle, cfg.maxAngle) {
		t.Error("code 4000 must be inside the window")
	}
	if azimuthInWindow(18000, cfg.minAngle, cfg.maxAngle) {
		t.Error("code 18000 must be outside the window")
	}
}

func TestPointInRange(t *testing.T) {
	cfg := Parameters{MinRange: 0.9, MaxRange: 130}.toConfig()
	if cfg.pointInRange(0.5) {
		t.Error("0.5 m is below the minimum range")
	}
	if !cfg.pointInRange(0.9) {
		t.Error("range bounds are inclusive")
	}
	if !cfg.pointInRange(50) {
		t.Error("50 m is inside the range")
	}
	if cfg.pointInRange(131) {
		t.Error("131 m is above the maximum range")
	}
}
