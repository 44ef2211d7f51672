package velodyne

import (
	"github.com/banshee-data/velodyne.report/internal/lidar/calib"
)

// correctedPoint applies the per-laser geometric and intensity corrections
// to one raw reading and is the single correction model shared by both
// decode paths. All arithmetic is single precision and follows the
// manufacturer's documented procedure step for step; the two-point
// interpolation and the intensity clamp are order-sensitive, so the formula
// sequence must not be algebraically rearranged.
//
// The returned coordinates are already in the right-handed output frame
// (x forward swapped for y, y negated). distance is the corrected range used
// by the range gate.
func correctedPoint(c *calib.LaserCorrection, tables *rotationTables, resolution float32, rotation int, rawDistance uint16, reflectivity uint8) (x, y, z, intensity, distance float32) {
	distance = float32(rawDistance)*resolution + c.DistCorrection

	cosVertAngle := c.CosVertCorrection
	sinVertAngle := c.SinVertCorrection

	// cos(a-b) = cos(a)*cos(b) + sin(a)*sin(b)
	// sin(a-b) = sin(a)*cos(b) - cos(a)*sin(b)
	// folds the per-laser rotational offset into the shared azimuth table
	cosRotAngle := tables.cos[rotation]*c.CosRotCorrection + tables.sin[rotation]*c.SinRotCorrection
	sinRotAngle := tables.sin[rotation]*c.CosRotCorrection - tables.cos[rotation]*c.SinRotCorrection

	horizOffset := c.HorizOffsetCorrection
	vertOffset := c.VertOffsetCorrection

	// distance in the xy plane; the vert_offset term comes from the
	// manufacturer's mounting model
	xyDistance := distance*cosVertAngle - vertOffset*sinVertAngle

	// provisional X and Y, absolute values feed the interpolation below
	xx := xyDistance*sinRotAngle - horizOffset*cosRotAngle
	yy := xyDistance*cosRotAngle + horizOffset*sinRotAngle
	if xx < 0 {
		xx = -xx
	}
	if yy < 0 {
		yy = -yy
	}

	// Two-point calibration: linearly interpolate an axis-specific distance
	// correction between each axis's reference range and the 25.04 m anchor.
	var distanceCorrX, distanceCorrY float32
	if c.TwoPtCorrectionAvailable {
		distanceCorrX = (c.DistCorrection-c.DistCorrectionX)*(xx-2.4)/(25.04-2.4) + c.DistCorrectionX
		distanceCorrX -= c.DistCorrection
		distanceCorrY = (c.DistCorrection-c.DistCorrectionY)*(yy-1.93)/(25.04-1.93) + c.DistCorrectionY
		distanceCorrY -= c.DistCorrection
	}

	distanceX := distance + distanceCorrX
	xyDistance = distanceX*cosVertAngle - vertOffset*sinVertAngle
	outX := xyDistance*sinRotAngle - horizOffset*cosRotAngle

	distanceY := distance + distanceCorrY
	xyDistance = distanceY*cosVertAngle - vertOffset*sinVertAngle
	outY := xyDistance*cosRotAngle + horizOffset*sinRotAngle

	// Using distanceY for Z is not symmetric, but the manufacturer's manual
	// does this.
	outZ := distanceY*sinVertAngle + vertOffset*cosVertAngle

	// right-handed output frame: swap axes relative to the sensor's native
	// convention
	x = outY
	y = -outX
	z = outZ

	intensity = float32(reflectivity)
	focalOffset := 256 * (1 - c.FocalDistance/13100) * (1 - c.FocalDistance/13100)
	focalTerm := focalOffset - 256*(1-float32(rawDistance)/65535)*(1-float32(rawDistance)/65535)
	if focalTerm < 0 {
		focalTerm = -focalTerm
	}
	intensity += c.FocalSlope * focalTerm
	if intensity < c.MinIntensity {
		intensity = c.MinIntensity
	}
	if intensity > c.MaxIntensity {
		intensity = c.MaxIntensity
	}

	return x, y, z, intensity, distance
}
