package math

import "github.com/chewxy/math32"

// Quat represents a rotation quaternion; W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle creates a quaternion from a normalized axis and an angle in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

// Mat4 returns the rotation matrix for q. q is assumed normalized.
func (q Quat) Mat4() Mat4 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Transform is a translation, rotation and scale applied in T*R*S order.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// IdentityTransform returns a transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: QuatIdentity(), Scale: Vec3Splat(1)}
}

// FromTranslation returns an identity transform moved to (x, y, z).
func FromTranslation(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Translation = Vec3{x, y, z}
	return t
}

// Matrix returns the model matrix.
func (t Transform) Matrix() Mat4 {
	tr := Translate(t.Translation.X, t.Translation.Y, t.Translation.Z)
	return tr.Mul(t.Rotation.Mat4()).Mul(Scale(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// TransformPoint applies the transform to p.
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return t.Matrix().TransformPoint(p)
}

// AABB is an axis-aligned bounding box stored as center and half extents.
type AABB struct {
	Center      Vec3
	HalfExtents Vec3
}

// AABBFromPoints returns the smallest box enclosing points.
// An empty slice yields the zero box.
func AABBFromPoints(points []Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = Vec3{math32.Min(lo.X, p.X), math32.Min(lo.Y, p.Y), math32.Min(lo.Z, p.Z)}
		hi = Vec3{math32.Max(hi.X, p.X), math32.Max(hi.Y, p.Y), math32.Max(hi.Z, p.Z)}
	}
	return AABB{
		Center:      lo.Add(hi).Scale(0.5),
		HalfExtents: hi.Sub(lo).Scale(0.5),
	}
}

// Min returns the minimum corner.
func (b AABB) Min() Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

// Max returns the maximum corner.
func (b AABB) Max() Vec3 {
	return b.Center.Add(b.HalfExtents)
}
