package transform

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose places a frame relative to the graph's reference frame: a point in
// the frame is rotated then translated to land in the reference frame.
type Pose struct {
	Rotation    r3.Rotation
	Translation r3.Vec
}

// Identity returns the pose that leaves points unchanged.
func Identity() Pose {
	return Pose{Rotation: r3.NewRotation(0, r3.Vec{Z: 1})}
}

// apply maps a point expressed in the pose's frame into the reference frame.
func (p Pose) apply(v r3.Vec) r3.Vec {
	return r3.Add(p.Rotation.Rotate(v), p.Translation)
}

// applyInverse maps a reference-frame point into the pose's frame.
func (p Pose) applyInverse(v r3.Vec) r3.Vec {
	inv := r3.Rotation(quat.Conj(quat.Number(p.Rotation)))
	return inv.Rotate(r3.Sub(v, p.Translation))
}

// StaticGraph is a time-invariant pose graph: every registered frame is
// placed relative to one shared reference frame, and transforms compose
// source -> reference -> target. It satisfies Transformer for deployments
// where the sensor and target frames do not move relative to each other.
type StaticGraph struct {
	mu     sync.RWMutex
	frames map[string]Pose
}

// NewStaticGraph creates an empty pose graph.
func NewStaticGraph() *StaticGraph {
	return &StaticGraph{frames: make(map[string]Pose)}
}

// SetFrame registers or replaces a frame's pose relative to the reference
// frame.
func (g *StaticGraph) SetFrame(name string, pose Pose) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frames[name] = pose
}

// Transform implements Transformer. The stamp and fixedFrame are ignored:
// poses here do not vary with time, and every lookup already routes through
// the single reference frame.
func (g *StaticGraph) Transform(x, y, z float32, sourceFrame, targetFrame, fixedFrame string, stamp time.Time) (float32, float32, float32, error) {
	if sourceFrame == targetFrame {
		return x, y, z, nil
	}

	g.mu.RLock()
	source, okSource := g.frames[sourceFrame]
	target, okTarget := g.frames[targetFrame]
	g.mu.RUnlock()

	if !okSource {
		return 0, 0, 0, fmt.Errorf("unknown source frame %q", sourceFrame)
	}
	if !okTarget {
		return 0, 0, 0, fmt.Errorf("unknown target frame %q", targetFrame)
	}

	v := r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}
	out := target.applyInverse(source.apply(v))
	return float32(out.X), float32(out.Y), float32(out.Z), nil
}
