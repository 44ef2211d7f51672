package velodyne

import (
	"math"
	"sync"
)

// rotationTables caches sine and cosine for every representable azimuth code
// so the per-point hot path never evaluates a transcendental. Built once,
// read-only afterwards, safe to share across concurrent decodes.
type rotationTables struct {
	cos [ROTATION_MAX_UNITS]float32
	sin [ROTATION_MAX_UNITS]float32
}

var (
	rotTablesOnce sync.Once
	rotTables     *rotationTables
)

func sharedRotationTables() *rotationTables {
	rotTablesOnce.Do(func() {
		t := &rotationTables{}
		for code := 0; code < ROTATION_MAX_UNITS; code++ {
			rotation := float64(code) * ROTATION_RESOLUTION * math.Pi / 180.0
			t.cos[code] = float32(math.Cos(rotation))
			t.sin[code] = float32(math.Sin(rotation))
		}
		rotTables = t
	})
	return rotTables
}
