package velodyne

import (
	"math"
	"testing"

	"github.com/banshee-data/velodyne.report/internal/lidar/calib"
)

func flatLaser() calib.LaserCorrection {
	return calib.LaserCorrection{
		CosRotCorrection:  1,
		CosVertCorrection: 1,
		MaxIntensity:      255,
	}
}

func TestCorrectedPointBasicGeometry(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()

	// 2 m straight ahead (code 0): lands on the positive output x axis
	x, y, z, _, distance := correctedPoint(&laser, tables, 0.002, 0, 1000, 50)
	if math.Abs(float64(distance)-2.0) > 1e-6 {
		t.Errorf("expected distance 2.0, got %f", distance)
	}
	if math.Abs(float64(x)-2.0) > 1e-5 || math.Abs(float64(y)) > 1e-5 || math.Abs(float64(z)) > 1e-5 {
		t.Errorf("unexpected position (%f, %f, %f)", x, y, z)
	}

	// 90 degrees (code 9000): hardware azimuth sweeps clockwise, so the
	// point moves to the negative output y axis
	x, y, _, _, _ = correctedPoint(&laser, tables, 0.002, 9000, 1000, 50)
	if math.Abs(float64(x)) > 1e-4 || math.Abs(float64(y)+2.0) > 1e-4 {
		t.Errorf("unexpected position at 90 degrees (%f, %f)", x, y)
	}
}

func TestCorrectedPointDistanceCorrection(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()
	laser.DistCorrection = 0.5

	_, _, _, _, distance := correctedPoint(&laser, tables, 0.002, 0, 1000, 50)
	if math.Abs(float64(distance)-2.5) > 1e-6 {
		t.Errorf("expected base-corrected distance 2.5, got %f", distance)
	}
}

func TestCorrectedPointVerticalAngle(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()
	vert := 15.0 * math.Pi / 180
	laser.CosVertCorrection = float32(math.Cos(vert))
	laser.SinVertCorrection = float32(math.Sin(vert))

	x, _, z, _, _ := correctedPoint(&laser, tables, 0.002, 0, 1000, 50)
	if math.Abs(float64(x)-2.0*math.Cos(vert)) > 1e-5 {
		t.Errorf("expected horizontal component %f, got %f", 2.0*math.Cos(vert), x)
	}
	if math.Abs(float64(z)-2.0*math.Sin(vert)) > 1e-5 {
		t.Errorf("expected vertical component %f, got %f", 2.0*math.Sin(vert), z)
	}
}

func TestTwoPointCorrectionDisabledIsExact(t *testing.T) {
	tables := sharedRotationTables()

	// identical lasers except for the two-point fields, which must have no
	// effect while the flag is off
	plain := flatLaser()
	flagged := flatLaser()
	flagged.DistCorrectionX = 0.3
	flagged.DistCorrectionY = 0.2

	for _, code := range []int{0, 4500, 9000, 27000} {
		x1, y1, z1, _, _ := correctedPoint(&plain, tables, 0.002, code, 1500, 50)
		x2, y2, z2, _, _ := correctedPoint(&flagged, tables, 0.002, code, 1500, 50)
		if x1 != x2 || y1 != y2 || z1 != z2 {
			t.Errorf("code %d: disabled two-point correction changed the result", code)
		}
	}
}

func TestTwoPointCorrectionApplies(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()
	laser.TwoPtCorrectionAvailable = true
	laser.DistCorrectionX = 0.3
	laser.DistCorrectionY = 0.2

	// at code 0 the reading lies on the Y branch's axis: the interpolated
	// Y correction shifts x (the output axis swap maps y to out.x)
	x, _, _, _, _ := correctedPoint(&laser, tables, 0.002, 0, 1000, 50)
	plain := flatLaser()
	px, _, _, _, _ := correctedPoint(&plain, tables, 0.002, 0, 1000, 50)
	if x == px {
		t.Error("enabled two-point correction must change the result")
	}
}

func TestIntensityClamp(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()
	laser.MinIntensity = 40
	laser.MaxIntensity = 200

	_, _, _, intensity, _ := correctedPoint(&laser, tables, 0.002, 0, 1000, 10)
	if intensity != 40 {
		t.Errorf("expected clamp to min intensity 40, got %f", intensity)
	}
	_, _, _, intensity, _ = correctedPoint(&laser, tables, 0.002, 0, 1000, 250)
	if intensity != 200 {
		t.Errorf("expected clamp to max intensity 200, got %f", intensity)
	}
}

func TestIntensityFocalCurve(t *testing.T) {
	tables := sharedRotationTables()
	laser := flatLaser()
	laser.FocalDistance = 1000
	laser.FocalSlope = 1

	// reproduce the documented focal-curve formula for one reading
	raw := uint16(1000)
	focalOffset := 256 * (1 - laser.FocalDistance/13100) * (1 - laser.FocalDistance/13100)
	term := focalOffset - 256*(1-float32(raw)/65535)*(1-float32(raw)/65535)
	if term < 0 {
		term = -term
	}
	want := 50 + laser.FocalSlope*term

	_, _, _, intensity, _ := correctedPoint(&laser, tables, 0.002, 0, raw, 50)
	if math.Abs(float64(intensity-want)) > 1e-5 {
		t.Errorf("expected intensity %f, got %f", want, intensity)
	}
}
