// Package network extracts sensor packets from capture sources and groups
// them into one-revolution scans for the decoder. Live socket handling is
// out of scope; this package serves offline capture replay and tests.
package network

import (
	"encoding/binary"

	"github.com/banshee-data/velodyne.report/internal/lidar"
	"github.com/banshee-data/velodyne.report/internal/lidar/velodyne"
)

// ScanAssembler groups consecutive packets into scans, cutting a scan
// whenever the azimuth wraps past zero (the start of a new revolution).
// Packets that are not full sensor datagrams are counted and dropped.
type ScanAssembler struct {
	frameID      string
	current      []lidar.Packet
	lastRotation int
	dropped      int
}

// NewScanAssembler creates an assembler tagging scans with the sensor's
// coordinate frame.
func NewScanAssembler(frameID string) *ScanAssembler {
	return &ScanAssembler{frameID: frameID, lastRotation: -1}
}

// Add appends a packet and returns a completed scan when the packet starts
// a new revolution, or nil while the current revolution is still filling.
func (a *ScanAssembler) Add(pkt lidar.Packet) *lidar.Scan {
	if len(pkt.Data) != velodyne.PACKET_SIZE {
		a.dropped++
		return nil
	}

	// azimuth of the packet's first block; codes increase through a
	// revolution, so a decrease marks the wraparound
	rotation := int(binary.LittleEndian.Uint16(pkt.Data[velodyne.BLOCK_HEADER_SIZE:]))

	var done *lidar.Scan
	if a.lastRotation >= 0 && rotation < a.lastRotation && len(a.current) > 0 {
		done = a.finish()
	}
	a.current = append(a.current, pkt)
	a.lastRotation = rotation
	return done
}

// Flush returns the in-progress scan, if any. Call at end of input.
func (a *ScanAssembler) Flush() *lidar.Scan {
	if len(a.current) == 0 {
		return nil
	}
	return a.finish()
}

// Dropped reports how many malformed packets were discarded.
func (a *ScanAssembler) Dropped() int {
	return a.dropped
}

func (a *ScanAssembler) finish() *lidar.Scan {
	scan := &lidar.Scan{
		Packets: a.current,
		Stamp:   a.current[0].Stamp,
		FrameID: a.frameID,
	}
	a.current = nil
	return scan
}
