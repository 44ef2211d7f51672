package lidar

import (
	"math"
	"time"
)

// RingInvalid marks a grid cell whose ring has not been assigned. Valid ring
// indices are non-negative, so the sentinel never collides with a real beam.
const RingInvalid int16 = -1

// Point is one calibrated laser return in Cartesian sensor (or target frame)
// coordinates. Position is in meters; Intensity has the per-laser calibration
// clamp applied. Ring is the logical beam index, ordered by elevation, which
// may differ from the hardware laser id.
type Point struct {
	X, Y, Z   float32
	Intensity float32
	Ring      int16
}

// DefaultPoint returns the value an unpopulated grid cell holds: NaN
// position, zero intensity and an invalid ring. Downstream consumers rely on
// NaN-position cells with a valid ring to account for gated-out returns.
func DefaultPoint() Point {
	nan := float32(math.NaN())
	return Point{X: nan, Y: nan, Z: nan, Intensity: 0, Ring: RingInvalid}
}

// PointCloud is an organized point grid: one row per beam, one column per
// azimuth slot. Cells are stored row-major and pre-filled with DefaultPoint.
type PointCloud struct {
	Width   int
	Height  int
	Stamp   time.Time // capture time of the source scan
	FrameID string    // frame the points are expressed in
	Points  []Point
}

// NewPointCloud allocates a width x height grid filled with default points.
func NewPointCloud(width, height int) *PointCloud {
	points := make([]Point, width*height)
	def := DefaultPoint()
	for i := range points {
		points[i] = def
	}
	return &PointCloud{Width: width, Height: height, Points: points}
}

// At returns a pointer to the cell at (col, row) for in-place mutation.
func (pc *PointCloud) At(col, row int) *Point {
	return &pc.Points[row*pc.Width+col]
}

// Packet is one fixed-size sensor datagram with its capture timestamp.
// The decoder never mutates the payload.
type Packet struct {
	Data  []byte
	Stamp time.Time
}

// Scan is an ordered sequence of packets covering (usually) one sensor
// revolution, stamped with the capture time of its first packet and tagged
// with the coordinate frame the sensor reports in.
type Scan struct {
	Packets []Packet
	Stamp   time.Time
	FrameID string
}
