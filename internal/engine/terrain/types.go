// Package terrain builds ground meshes and samples ground height for vegetation placement.
package terrain

import (
	"github.com/Faultbox/birdylook/pkg/math"
)

// Vertex represents a ground mesh vertex with all attributes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
}

// Mesh holds the complete ground mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the ground.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// AABB converts the bounds to center/half-extents form.
func (b Bounds) AABB() math.AABB {
	lo := math.Vec3{X: b.Min[0], Y: b.Min[1], Z: b.Min[2]}
	hi := math.Vec3{X: b.Max[0], Y: b.Max[1], Z: b.Max[2]}
	return math.AABB{
		Center:      lo.Add(hi).Scale(0.5),
		HalfExtents: hi.Sub(lo).Scale(0.5),
	}
}

// Positions returns the vertex position attribute.
func (m *Mesh) Positions() []math.Vec3 {
	if m == nil {
		return nil
	}
	out := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = math.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
	}
	return out
}

// GroundSurface is the read-only view of a ground region used for placement.
// Positions are in mesh-local space; a nil slice means the mesh has no position attribute.
type GroundSurface struct {
	Transform math.Transform
	Bounds    math.AABB
	Positions []math.Vec3
}
