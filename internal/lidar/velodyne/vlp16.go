package velodyne

import (
	"math"
	"time"

	"github.com/banshee-data/velodyne.report/internal/lidar"
)

// unpackVLP16 decodes the 16-laser interleaved layout. Each block holds two
// 16-laser firings that share one reported azimuth even though the beams
// fire at measurably different instants, so the azimuth is interpolated per
// beam from the difference to the next block with a new azimuth. Under dual
// return the sensor repeats each azimuth in consecutive blocks and the two
// return channels are interleaved into adjacent output columns.
func (d *Decoder) unpackVLP16(cfg *config, scan *lidar.Scan, pc *lidar.PointCloud) {
	var lastAzimuthDiff float32

	for packet := range scan.Packets {
		pkt := &scan.Packets[packet]
		data := pkt.Data
		tail := parseTail(data)

		dualReturn := tail.ReturnMode == RETURN_MODE_DUAL

		// index step to the next block carrying a new azimuth value
		iDiff := 1
		if dualReturn {
			iDiff = 2
		}

		for block := 0; block < BLOCKS_PER_PACKET; block++ {
			// Sanity check: ignore packets with mangled or otherwise
			// different contents.
			if header := blockHeader(data, block); header != UPPER_BANK {
				d.warnBadBlock.Printf("skipping invalid VLP-16 scan: block %d header value is %#04x", block, header)
				return // bad packet: skip the rest, keep the partial grid
			}

			azimuth := float32(blockRotation(data, block))
			var azimuthDiff float32
			if block < BLOCKS_PER_PACKET-iDiff {
				azimuthDiff = float32((36000 + blockRotation(data, block+iDiff) - blockRotation(data, block)) % 36000)
				lastAzimuthDiff = azimuthDiff
			} else {
				azimuthDiff = lastAzimuthDiff
			}

			for firing := 0; firing < VLP16_FIRINGS_PER_BLOCK; firing++ {
				for dsr := 0; dsr < VLP16_SCANS_PER_FIRING; dsr++ {
					// beam firing time relative to the block start (µs)
					tBeam := float32(dsr)*VLP16_DSR_TOFFSET + float32(firing)*VLP16_FIRING_TOFFSET

					correction := &d.calibration.Lasers[dsr]
					rawDistance, reflectivity := blockReading(data, block, firing*VLP16_SCANS_PER_FIRING+dsr)

					// correct for the rotation during the firing sequence
					azimuthCorrected := int(math.Round(float64(azimuth+azimuthDiff*tBeam/VLP16_BLOCK_TDURATION))) % 36000

					if !azimuthInWindow(azimuthCorrected, cfg.minAngle, cfg.maxAngle) {
						continue
					}

					x, y, z, intensity, distance := correctedPoint(
						correction, d.tables, d.calibration.DistanceResolution,
						azimuthCorrected, rawDistance, reflectivity)

					row := VLP16_SCANS_PER_FIRING - 1 - int(correction.Ring)
					var col int
					if dualReturn {
						// interleave the two return channels into adjacent
						// columns rather than separate halves of the grid
						col = packet*BLOCKS_PER_PACKET*VLP16_FIRINGS_PER_BLOCK +
							(block/2)*2*VLP16_FIRINGS_PER_BLOCK +
							firing*2 +
							block%2
					} else {
						col = packet*BLOCKS_PER_PACKET*VLP16_FIRINGS_PER_BLOCK +
							block*VLP16_FIRINGS_PER_BLOCK +
							firing
					}

					cell := pc.At(col, row)
					*cell = lidar.DefaultPoint()
					cell.Ring = correction.Ring

					if !cfg.pointInRange(distance) {
						continue
					}

					// intensity is narrowed through the 8-bit range on this
					// path, matching the hardware convention
					intensity = float32(uint8(intensity))

					if d.transformer == nil || cfg.targetFrame == "" {
						cell.X, cell.Y, cell.Z = x, y, z
						cell.Intensity = intensity
						continue
					}

					// per-beam acquisition time: packet stamp plus the
					// beam's offset into the packet
					beamOffset := (float64(block)*VLP16_BLOCK_TDURATION + float64(tBeam)) * float64(time.Microsecond)
					stamp := pkt.Stamp.Add(time.Duration(beamOffset))

					tx, ty, tz, err := d.transformer.Transform(
						x, y, z, scan.FrameID, cfg.targetFrame, cfg.fixedFrame, stamp)
					if err != nil {
						d.warnTransform.Printf("transform to %s failed: %v", cfg.targetFrame, err)
						continue // skip this point only
					}
					cell.X, cell.Y, cell.Z = tx, ty, tz
					cell.Intensity = intensity
				}
			}
		}
	}
}
