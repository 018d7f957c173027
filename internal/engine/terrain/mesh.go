package terrain

import (
	"github.com/chewxy/math32"
)

// GroundParams controls procedural ground generation.
type GroundParams struct {
	Size       float32 // edge length in world units, the ground spans [0, Size] on X and Z
	Segments   int     // quads per edge
	HillHeight float32 // peak amplitude of the rolling hills
}

// Ground colors blended by slope.
var (
	flatColor  = [4]float32{0.22, 0.34, 0.12, 1}
	steepColor = [4]float32{0.36, 0.29, 0.18, 1}
)

// BuildGroundMesh creates a rolling-hill ground mesh.
// The mesh starts at the origin so that its bounding-box center is half its extent.
func BuildGroundMesh(p GroundParams) *Mesh {
	if p.Segments < 1 {
		p.Segments = 1
	}
	n := p.Segments + 1
	step := p.Size / float32(p.Segments)

	vertices := make([]Vertex, 0, n*n)
	indices := make([]uint32, 0, p.Segments*p.Segments*6)

	// Initialize bounds
	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}

	for z := range n {
		for x := range n {
			px := float32(x) * step
			pz := float32(z) * step
			pos := [3]float32{px, hillHeight(px, pz, p.Size, p.HillHeight), pz}
			updateBounds(&bounds, pos)
			vertices = append(vertices, Vertex{Position: pos})
		}
	}

	for z := range p.Segments {
		for x := range p.Segments {
			i0 := uint32(z*n + x)
			i1 := i0 + 1
			i2 := i0 + uint32(n)
			i3 := i2 + 1
			// Counter-clockwise seen from above
			indices = append(indices, i0, i2, i1, i1, i2, i3)
		}
	}

	computeNormals(vertices, indices)
	for i := range vertices {
		vertices[i].Color = slopeColor(vertices[i].Normal)
	}

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}
}

// hillHeight sums two low-frequency waves across the ground.
func hillHeight(x, z, size, amplitude float32) float32 {
	if amplitude == 0 || size == 0 {
		return 0
	}
	u := x / size * 2 * math32.Pi
	v := z / size * 2 * math32.Pi
	h := math32.Sin(u*1.5)*math32.Cos(v) + 0.5*math32.Sin(u*3.1+v*2.3)
	return h * amplitude / 1.5
}

// computeNormals accumulates face normals on shared vertices.
func computeNormals(vertices []Vertex, indices []uint32) {
	sums := make([][3]float32, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa, pb, pc := vertices[a].Position, vertices[b].Position, vertices[c].Position
		edge1 := [3]float32{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
		edge2 := [3]float32{pc[0] - pa[0], pc[1] - pa[1], pc[2] - pa[2]}
		fn := cross(edge1, edge2)
		for _, idx := range [3]uint32{a, b, c} {
			sums[idx][0] += fn[0]
			sums[idx][1] += fn[1]
			sums[idx][2] += fn[2]
		}
	}
	for i := range vertices {
		vertices[i].Normal = normalize(sums[i])
	}
}

// slopeColor blends from grass to dirt as the surface steepens.
func slopeColor(normal [3]float32) [4]float32 {
	t := clampf((1-normal[1])*4, 0, 1)
	var c [4]float32
	for i := range c {
		c[i] = flatColor[i] + (steepColor[i]-flatColor[i])*t
	}
	return c
}

// Helper functions

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
