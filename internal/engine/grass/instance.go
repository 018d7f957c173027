// Package grass expands placement maps into per-blade instance data.
package grass

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/birdylook/pkg/math"
)

// InstanceStride is the packed size of a BladeInstance in bytes.
const InstanceStride = 32

// DefaultColor is the dark green used when no tint applies.
var DefaultColor = math.Vec4{0.1, 0.2, 0.01, 1}

// BladeInstance is the per-instance vertex data of one blade.
// Packed layout: position.xyz, scale (vec4 at offset 0), color (vec4 at offset 16).
type BladeInstance struct {
	Position math.Vec3
	Scale    float32
	Color    math.Vec4
}

// NewBladeInstance returns a unit-scale blade with the default color.
func NewBladeInstance(x, y, z float32) BladeInstance {
	return BladeInstance{
		Position: math.Vec3{X: x, Y: y, Z: z},
		Scale:    1,
		Color:    DefaultColor,
	}
}

// WithScale returns a copy with the given scale.
func (b BladeInstance) WithScale(s float32) BladeInstance {
	b.Scale = s
	return b
}

// AppendBytes appends the little-endian packed form of b to dst.
func (b BladeInstance) AppendBytes(dst []byte) []byte {
	for _, f := range [8]float32{
		b.Position.X, b.Position.Y, b.Position.Z, b.Scale,
		b.Color[0], b.Color[1], b.Color[2], b.Color[3],
	} {
		dst = binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(f))
	}
	return dst
}

// PackInstances returns the GPU byte layout of instances, InstanceStride bytes each.
func PackInstances(instances []BladeInstance) []byte {
	buf := make([]byte, 0, len(instances)*InstanceStride)
	for _, b := range instances {
		buf = b.AppendBytes(buf)
	}
	return buf
}

// Tint darkens or brightens color by coverage, keeping alpha.
// Coverage 1 returns the color unchanged, coverage 0 halves it.
func Tint(color math.Vec4, coverage float32) math.Vec4 {
	f := 0.5 + 0.5*clamp01(coverage)
	return math.Vec4{color[0] * f, color[1] * f, color[2] * f, color[3]}
}

// Bounds returns the box enclosing all blade positions.
func Bounds(instances []BladeInstance) math.AABB {
	points := make([]math.Vec3, len(instances))
	for i, b := range instances {
		points[i] = b.Position
	}
	return math.AABBFromPoints(points)
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
