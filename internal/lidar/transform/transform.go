// Package transform re-expresses sensor-frame points in other coordinate
// frames. The decoder consumes the narrow Transformer interface; failures
// are ordinary error returns so callers can skip individual points.
package transform

import "time"

// Transformer converts a point from sourceFrame to targetFrame at the given
// acquisition time. fixedFrame, when non-empty, names an intermediate frame
// the implementation may route the lookup through. An error means the point
// could not be transformed; the caller decides whether that is fatal.
type Transformer interface {
	Transform(x, y, z float32, sourceFrame, targetFrame, fixedFrame string, stamp time.Time) (float32, float32, float32, error)
}
