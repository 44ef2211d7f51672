package velodyne

import "math"

// Parameters is the externally supplied decoder configuration. Angles are in
// radians using the standard mathematical convention; SetParameters converts
// them to hardware azimuth gate codes (hundredths of a degree, decreasing
// with mathematical angle).
type Parameters struct {
	MinRange      float64 // Minimum valid corrected distance (meters)
	MaxRange      float64 // Maximum valid corrected distance (meters)
	ViewDirection float64 // Center of the angular window (radians)
	ViewWidth     float64 // Width of the angular window (radians)
	TargetFrame   string  // Frame to express output points in; empty for sensor frame
	FixedFrame    string  // Intermediate frame for transform lookups
}

// config is one immutable snapshot of decoder configuration in hardware
// units. Snapshots are swapped whole between scans so a decode in progress
// never observes a torn min/max pair.
type config struct {
	minRange    float32
	maxRange    float32
	minAngle    int
	maxAngle    int
	targetFrame string
	fixedFrame  string
}

// toConfig converts view direction/width into the hardware gate convention.
// A degenerate window (min == max after conversion) is normalized to the
// full circle rather than an empty window; both decode paths rely on this.
func (p Parameters) toConfig() config {
	tmpMin := p.ViewDirection + p.ViewWidth/2
	tmpMax := p.ViewDirection - p.ViewWidth/2

	// positive modulo keeps the angles in [0, 2π)
	tmpMin = math.Mod(math.Mod(tmpMin, 2*math.Pi)+2*math.Pi, 2*math.Pi)
	tmpMax = math.Mod(math.Mod(tmpMax, 2*math.Pi)+2*math.Pi, 2*math.Pi)

	// convert into hardware azimuth codes (negative convention, degrees);
	// adding 0.5 performs a centered float to int conversion
	minAngle := int(100*(2*math.Pi-tmpMin)*180/math.Pi + 0.5)
	maxAngle := int(100*(2*math.Pi-tmpMax)*180/math.Pi + 0.5)
	if minAngle == maxAngle {
		minAngle = 0
		maxAngle = ROTATION_MAX_UNITS
	}

	return config{
		minRange:    float32(p.MinRange),
		maxRange:    float32(p.MaxRange),
		minAngle:    minAngle,
		maxAngle:    maxAngle,
		targetFrame: p.TargetFrame,
		fixedFrame:  p.FixedFrame,
	}
}

// azimuthInWindow reports whether an azimuth code lies inside the gate.
// min > max denotes a window wrapping through zero. min == max only occurs
// for the normalized full-circle window and is always true.
func azimuthInWindow(code, min, max int) bool {
	switch {
	case min < max:
		return code >= min && code <= max
	case min > max:
		return code >= min || code <= max
	default:
		return true
	}
}

// pointInRange reports whether a corrected distance passes the range clamp.
func (c *config) pointInRange(distance float32) bool {
	return distance >= c.minRange && distance <= c.maxRange
}
