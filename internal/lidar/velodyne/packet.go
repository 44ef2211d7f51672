package velodyne

import (
	"encoding/binary"
	"fmt"
)

/*
Velodyne LiDAR Packet Decoder

The decoder turns raw 1206-byte Velodyne UDP payloads into organized point
grids. One wire format carries two structurally different layouts that share
a single correction model:

PACKET STRUCTURE (1206 bytes total):
├── Data Blocks (1200 bytes) - 12 blocks × 100 bytes each, starting at offset 0
│   └── Each block: 2-byte bank marker (0xEEFF upper / 0xDDFF lower) +
│       2-byte azimuth (0.01° units) + 32 readings × 3 bytes (distance + reflectivity)
└── Status (6 bytes) - 4-byte timestamp (µs since top of hour) + 2 factory bytes

HDL-32E / HDL-64E (dual-bank layout):
  The bank marker selects which 32 lasers a block reports: upper bank lasers
  [0..31], lower bank lasers [32..63]. All readings in a block share the
  block azimuth.

VLP-16 (interleaved layout):
  Every block must carry the upper-bank marker and holds two 16-laser
  firings. The shared block azimuth is interpolated per beam using the
  firing timing constants below. The first factory byte (offset 1204)
  signals dual-return mode, which interleaves two return channels into
  adjacent output columns.
*/

// Velodyne packet layout constants. These define the fixed format of the
// UDP payload sent by HDL-32E, HDL-64E and VLP-16 sensors.
const (
	PACKET_SIZE       = 1206                            // UDP payload size in bytes
	BLOCKS_PER_PACKET = 12                              // Firing blocks per packet
	SCANS_PER_BLOCK   = 32                              // Laser readings per block
	RAW_SCAN_SIZE     = 3                               // Reading size: 2 bytes distance + 1 byte reflectivity
	BLOCK_HEADER_SIZE = 2                               // Bank marker size
	ROTATION_SIZE     = 2                               // Azimuth field size (little-endian, 0.01° units)
	BLOCK_DATA_SIZE   = SCANS_PER_BLOCK * RAW_SCAN_SIZE // 96 bytes of readings per block
	BLOCK_SIZE        = BLOCK_HEADER_SIZE + ROTATION_SIZE + BLOCK_DATA_SIZE
	SCANS_PER_PACKET  = SCANS_PER_BLOCK * BLOCKS_PER_PACKET

	TIMESTAMP_OFFSET = 1200 // 4-byte little-endian µs-since-hour timestamp
	FACTORY_OFFSET   = 1204 // 2 factory bytes: return mode + product id

	UPPER_BANK = 0xeeff // Bank marker for lasers [0..31]
	LOWER_BANK = 0xddff // Bank marker for lasers [32..63]

	// Physical measurement conversion constants
	ROTATION_RESOLUTION = 0.01  // Azimuth unit: 0.01 degrees per LSB
	ROTATION_MAX_UNITS  = 36000 // Maximum azimuth code (360.00 degrees)

	// VLP-16 firing timing (microseconds)
	VLP16_FIRINGS_PER_BLOCK = 2
	VLP16_SCANS_PER_FIRING  = 16
	VLP16_BLOCK_TDURATION   = 110.592 // Duration of one block
	VLP16_DSR_TOFFSET       = 2.304   // Offset between consecutive lasers in a firing
	VLP16_FIRING_TOFFSET    = 55.296  // Offset between the two firings in a block

	// Factory return-mode byte values
	RETURN_MODE_STRONGEST = 0x37
	RETURN_MODE_LAST      = 0x38
	RETURN_MODE_DUAL      = 0x39
)

// Tail holds the decoded 6-byte status region at the end of a packet.
type Tail struct {
	Timestamp  uint32 // Microseconds since the top of the hour
	ReturnMode uint8  // 0x37 strongest, 0x38 last, 0x39 dual
	ProductID  uint8
}

// parseTail decodes the status region of a full-size packet.
func parseTail(data []byte) Tail {
	return Tail{
		Timestamp:  binary.LittleEndian.Uint32(data[TIMESTAMP_OFFSET : TIMESTAMP_OFFSET+4]),
		ReturnMode: data[FACTORY_OFFSET],
		ProductID:  data[FACTORY_OFFSET+1],
	}
}

// blockHeader returns the bank marker of block i.
func blockHeader(data []byte, i int) uint16 {
	return binary.LittleEndian.Uint16(data[i*BLOCK_SIZE:])
}

// blockRotation returns the shared azimuth code of block i.
func blockRotation(data []byte, i int) int {
	return int(binary.LittleEndian.Uint16(data[i*BLOCK_SIZE+BLOCK_HEADER_SIZE:]))
}

// blockReading returns the raw distance code and reflectivity of reading j
// (byte offset j*RAW_SCAN_SIZE into the block data) within block i.
func blockReading(data []byte, i, j int) (uint16, uint8) {
	k := i*BLOCK_SIZE + BLOCK_HEADER_SIZE + ROTATION_SIZE + j*RAW_SCAN_SIZE
	return binary.LittleEndian.Uint16(data[k:]), data[k+2]
}

// validatePacket rejects payloads that are not a full sensor datagram.
func validatePacket(data []byte) error {
	if len(data) != PACKET_SIZE {
		return fmt.Errorf("invalid packet size: expected %d, got %d", PACKET_SIZE, len(data))
	}
	return nil
}
