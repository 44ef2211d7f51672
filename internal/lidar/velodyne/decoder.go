// Package velodyne decodes raw Velodyne sensor packets into organized point
// grids, applying per-laser factory calibration, firing-time azimuth
// compensation and angle/range gating.
package velodyne

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/banshee-data/velodyne.report/internal/lidar"
	"github.com/banshee-data/velodyne.report/internal/lidar/calib"
	"github.com/banshee-data/velodyne.report/internal/lidar/transform"
)

// warnInterval bounds how often recurring per-point decode warnings are
// logged.
const warnInterval = time.Second

// Decoder converts scans of raw packets into organized point clouds. The
// calibration table and trigonometric cache are built once and shared
// read-only, so a single Decoder may serve concurrent Unpack calls; each
// call allocates its own output grid.
type Decoder struct {
	calibration *calib.Calibration
	tables      *rotationTables
	transformer transform.Transformer

	// config holds the current parameter snapshot; swapped whole on update
	// so a running decode reads a consistent set.
	config atomic.Pointer[config]

	warnBadBlock  *logThrottle
	warnTransform *logThrottle
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithTransformer supplies the frame transform collaborator used when a
// target frame is configured. Without one, points stay in the sensor frame.
func WithTransformer(t transform.Transformer) Option {
	return func(d *Decoder) { d.transformer = t }
}

// NewDecoder validates the calibration table and builds the shared
// trigonometric cache. The laser count must match one of the supported
// packet layouts (16 interleaved, 32/64 dual-bank); anything else has no
// decode path and is rejected outright.
func NewDecoder(calibration *calib.Calibration, opts ...Option) (*Decoder, error) {
	if calibration == nil || len(calibration.Lasers) == 0 {
		return nil, fmt.Errorf("no calibration provided")
	}
	switch calibration.NumLasers {
	case 16, 32, 64:
	default:
		return nil, fmt.Errorf("unsupported laser count %d (supported: 16, 32, 64)", calibration.NumLasers)
	}
	if len(calibration.Lasers) != calibration.NumLasers {
		return nil, fmt.Errorf("calibration declares %d lasers but carries %d corrections",
			calibration.NumLasers, len(calibration.Lasers))
	}

	d := &Decoder{
		calibration:   calibration,
		tables:        sharedRotationTables(),
		warnBadBlock:  newLogThrottle(warnInterval),
		warnTransform: newLogThrottle(warnInterval),
	}
	for _, opt := range opts {
		opt(d)
	}

	initial := Parameters{
		MinRange:  0.9,
		MaxRange:  130.0,
		ViewWidth: 2 * math.Pi,
	}.toConfig()
	d.config.Store(&initial)
	return d, nil
}

// SetParameters installs a new configuration snapshot. Safe to call between
// scans; a decode already in progress keeps the snapshot it started with.
func (d *Decoder) SetParameters(p Parameters) {
	cfg := p.toConfig()
	d.config.Store(&cfg)
}

// Unpack decodes a full scan into a fresh organized point cloud. The grid is
// height = laser count, width = azimuth slots for the active layout. A
// malformed block on the interleaved path aborts the remainder of the scan
// but still returns the partially filled grid.
func (d *Decoder) Unpack(scan *lidar.Scan) (*lidar.PointCloud, error) {
	if scan == nil || len(scan.Packets) == 0 {
		return nil, fmt.Errorf("empty scan")
	}
	for i := range scan.Packets {
		if err := validatePacket(scan.Packets[i].Data); err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
	}

	cfg := d.config.Load()
	numLasers := d.calibration.NumLasers

	var width int
	if numLasers == VLP16_SCANS_PER_FIRING {
		width = len(scan.Packets) * BLOCKS_PER_PACKET * VLP16_FIRINGS_PER_BLOCK
	} else {
		width = len(scan.Packets) * SCANS_PER_PACKET / numLasers
	}

	pc := lidar.NewPointCloud(width, numLasers)
	pc.Stamp = scan.Stamp
	pc.FrameID = scan.FrameID
	if d.transformer != nil && cfg.targetFrame != "" {
		pc.FrameID = cfg.targetFrame
	}

	if numLasers == VLP16_SCANS_PER_FIRING {
		d.unpackVLP16(cfg, scan, pc)
	} else {
		d.unpackDualBank(cfg, scan, pc)
	}
	return pc, nil
}

// unpackDualBank decodes the 32/64-laser layout. Column assignment is a fold
// over packets, blocks and readings in strict order: the running point
// counter advances once per azimuth-gated-in reading, so columns depend on
// the total readings processed so far.
func (d *Decoder) unpackDualBank(cfg *config, scan *lidar.Scan, pc *lidar.PointCloud) {
	numLasers := d.calibration.NumLasers
	n := 0 // readings processed so far

	for pi := range scan.Packets {
		pkt := &scan.Packets[pi]
		data := pkt.Data

		for block := 0; block < BLOCKS_PER_PACKET; block++ {
			// upper bank lasers are [0..31], lower bank lasers are [32..63]
			bankOrigin := 0
			if blockHeader(data, block) == LOWER_BANK {
				bankOrigin = 32
			}
			if bankOrigin+SCANS_PER_BLOCK > numLasers {
				// lower-bank block from a sensor without a lower bank
				d.warnBadBlock.Printf("skipping block %d: bank marker exceeds %d-laser calibration", block, numLasers)
				continue
			}

			rotation := blockRotation(data, block)
			if rotation >= ROTATION_MAX_UNITS {
				// corrupt azimuth code, outside the trig tables
				d.warnBadBlock.Printf("skipping block %d: rotation code %d out of range", block, rotation)
				continue
			}
			if !azimuthInWindow(rotation, cfg.minAngle, cfg.maxAngle) {
				continue
			}

			for j := 0; j < SCANS_PER_BLOCK; j++ {
				laserNumber := j + bankOrigin
				correction := &d.calibration.Lasers[laserNumber]

				rawDistance, reflectivity := blockReading(data, block, j)
				x, y, z, intensity, distance := correctedPoint(
					correction, d.tables, d.calibration.DistanceResolution,
					rotation, rawDistance, reflectivity)

				col := n / numLasers
				row := numLasers - 1 - int(correction.Ring)
				n++

				cell := pc.At(col, row)
				// the ring is recorded even when the range gate suppresses
				// the position: downstream grid-density accounting needs to
				// know a shot landed here
				cell.Ring = correction.Ring

				if !cfg.pointInRange(distance) {
					continue
				}

				if d.transformer == nil || cfg.targetFrame == "" {
					cell.Intensity = intensity
					cell.X, cell.Y, cell.Z = x, y, z
					continue
				}

				tx, ty, tz, err := d.transformer.Transform(
					x, y, z, scan.FrameID, cfg.targetFrame, cfg.fixedFrame, pkt.Stamp)
				if err != nil {
					d.warnTransform.Printf("transform to %s failed: %v", cfg.targetFrame, err)
					continue // skip this point only
				}
				cell.Intensity = intensity
				cell.X, cell.Y, cell.Z = tx, ty, tz
			}
		}
	}
}
