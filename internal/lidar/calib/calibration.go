// Package calib loads and validates per-laser factory calibration for
// Velodyne sensors. The calibration artifact is a YAML file shipped with the
// unit; a factory table for the VLP-16 is embedded in the binary so that
// sensor can run without an external file.
package calib

import (
	"embed"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed factory/*.yaml
var factoryTables embed.FS

// DefaultDistanceResolution is the distance LSB in meters when the artifact
// does not specify one (0.2 cm per unit, the hardware default).
const DefaultDistanceResolution = 0.002

// LaserCorrection holds the factory correction parameters for one laser,
// with the trigonometric terms pre-computed so the decode path never calls
// into math for per-laser angles.
type LaserCorrection struct {
	RotCorrection  float32 // rotational mounting offset (radians)
	VertCorrection float32 // vertical mounting angle (radians)

	CosRotCorrection  float32
	SinRotCorrection  float32
	CosVertCorrection float32
	SinVertCorrection float32

	DistCorrection           float32 // base distance correction (meters)
	TwoPtCorrectionAvailable bool
	DistCorrectionX          float32 // X-branch correction at its reference range
	DistCorrectionY          float32 // Y-branch correction at its reference range

	VertOffsetCorrection  float32 // vertical mounting offset (meters)
	HorizOffsetCorrection float32 // horizontal mounting offset (meters)

	MinIntensity  float32
	MaxIntensity  float32
	FocalDistance float32
	FocalSlope    float32

	// Ring is the logical output row for this laser, assigned by ascending
	// vertical angle. Rings form a permutation of [0, NumLasers).
	Ring int16
}

// Calibration is the immutable per-sensor correction table, indexed by
// hardware laser id. Built once at setup and shared read-only by every
// concurrent decode.
type Calibration struct {
	NumLasers          int
	DistanceResolution float32
	Lasers             []LaserCorrection
}

// laserEntry mirrors one element of the artifact's "lasers" list.
type laserEntry struct {
	LaserID                  int      `yaml:"laser_id"`
	RotCorrection            float64  `yaml:"rot_correction"`
	VertCorrection           float64  `yaml:"vert_correction"`
	DistCorrection           float64  `yaml:"dist_correction"`
	TwoPtCorrectionAvailable bool     `yaml:"two_pt_correction_available"`
	DistCorrectionX          float64  `yaml:"dist_correction_x"`
	DistCorrectionY          float64  `yaml:"dist_correction_y"`
	VertOffsetCorrection     float64  `yaml:"vert_offset_correction"`
	HorizOffsetCorrection    float64  `yaml:"horiz_offset_correction"`
	MinIntensity             float64  `yaml:"min_intensity"`
	MaxIntensity             *float64 `yaml:"max_intensity"`
	FocalDistance            float64  `yaml:"focal_distance"`
	FocalSlope               float64  `yaml:"focal_slope"`
}

type calibrationFile struct {
	Lasers             []laserEntry `yaml:"lasers"`
	NumLasers          int          `yaml:"num_lasers"`
	DistanceResolution float64      `yaml:"distance_resolution"`
}

// Load reads and parses a calibration artifact from disk. A missing or
// unreadable artifact is an error; the decoder must never run on defaults.
func Load(path string) (*Calibration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file %s: %w", path, err)
	}
	cal, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	return cal, nil
}

// VLP16 returns the embedded factory calibration for the VLP-16.
func VLP16() (*Calibration, error) {
	raw, err := factoryTables.ReadFile("factory/VLP16db.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded VLP-16 calibration: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a calibration artifact. Every hardware laser
// id in [0, num_lasers) must appear exactly once.
func Parse(raw []byte) (*Calibration, error) {
	var file calibrationFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid calibration YAML: %w", err)
	}

	if len(file.Lasers) == 0 {
		return nil, fmt.Errorf("calibration contains no lasers")
	}
	numLasers := file.NumLasers
	if numLasers == 0 {
		numLasers = len(file.Lasers)
	}
	if numLasers != len(file.Lasers) {
		return nil, fmt.Errorf("calibration declares %d lasers but lists %d", numLasers, len(file.Lasers))
	}

	resolution := file.DistanceResolution
	if resolution == 0 {
		resolution = DefaultDistanceResolution
	}

	cal := &Calibration{
		NumLasers:          numLasers,
		DistanceResolution: float32(resolution),
		Lasers:             make([]LaserCorrection, numLasers),
	}

	seen := make([]bool, numLasers)
	for _, entry := range file.Lasers {
		if entry.LaserID < 0 || entry.LaserID >= numLasers {
			return nil, fmt.Errorf("laser_id %d out of range [0, %d)", entry.LaserID, numLasers)
		}
		if seen[entry.LaserID] {
			return nil, fmt.Errorf("duplicate laser_id %d", entry.LaserID)
		}
		seen[entry.LaserID] = true

		maxIntensity := 255.0
		if entry.MaxIntensity != nil {
			maxIntensity = *entry.MaxIntensity
		}

		cal.Lasers[entry.LaserID] = LaserCorrection{
			RotCorrection:  float32(entry.RotCorrection),
			VertCorrection: float32(entry.VertCorrection),

			CosRotCorrection:  float32(math.Cos(entry.RotCorrection)),
			SinRotCorrection:  float32(math.Sin(entry.RotCorrection)),
			CosVertCorrection: float32(math.Cos(entry.VertCorrection)),
			SinVertCorrection: float32(math.Sin(entry.VertCorrection)),

			DistCorrection:           float32(entry.DistCorrection),
			TwoPtCorrectionAvailable: entry.TwoPtCorrectionAvailable,
			DistCorrectionX:          float32(entry.DistCorrectionX),
			DistCorrectionY:          float32(entry.DistCorrectionY),

			VertOffsetCorrection:  float32(entry.VertOffsetCorrection),
			HorizOffsetCorrection: float32(entry.HorizOffsetCorrection),

			MinIntensity:  float32(entry.MinIntensity),
			MaxIntensity:  float32(maxIntensity),
			FocalDistance: float32(entry.FocalDistance),
			FocalSlope:    float32(entry.FocalSlope),
		}
	}

	assignRings(cal)
	return cal, nil
}

// assignRings orders lasers by ascending vertical angle and stores the
// resulting logical row index on each laser. The artifact does not carry
// ring indices; elevation order is the hardware convention.
func assignRings(cal *Calibration) {
	order := make([]int, cal.NumLasers)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cal.Lasers[order[a]].VertCorrection < cal.Lasers[order[b]].VertCorrection
	})
	for ring, laserID := range order {
		cal.Lasers[laserID].Ring = int16(ring)
	}
}
