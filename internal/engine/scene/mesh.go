package scene

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/pkg/math"
)

// Mesh attribute shader locations. Locations 1 and 2 are reserved for the grass instance stream.
const (
	LocationPosition uint32 = 0
	LocationNormal   uint32 = 3
	LocationColor    uint32 = 4
)

// Mesh is CPU-side geometry. Normals and Colors are optional but, when present,
// must match Positions in length.
type Mesh struct {
	Label     string
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Vec4
	Indices   []uint32
	Topology  gpu.PrimitiveTopology
}

func (m *Mesh) hasNormals() bool { return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions) }
func (m *Mesh) hasColors() bool  { return len(m.Colors) > 0 && len(m.Colors) == len(m.Positions) }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Indexed reports whether the mesh draws through an index buffer.
func (m *Mesh) Indexed() bool {
	return len(m.Indices) > 0
}

// Layout returns the interleaved per-vertex stream layout.
func (m *Mesh) Layout() gpu.VertexBufferLayout {
	l := gpu.VertexBufferLayout{StepMode: gpu.StepModeVertex}
	add := func(f gpu.VertexFormat, loc uint32) {
		l.Attributes = append(l.Attributes, gpu.VertexAttribute{Format: f, Offset: l.ArrayStride, ShaderLocation: loc})
		l.ArrayStride += f.Size()
	}
	add(gpu.VertexFormatFloat32x3, LocationPosition)
	if m.hasNormals() {
		add(gpu.VertexFormatFloat32x3, LocationNormal)
	}
	if m.hasColors() {
		add(gpu.VertexFormatFloat32x4, LocationColor)
	}
	return l
}

// VertexData returns the interleaved little-endian vertex bytes matching Layout.
func (m *Mesh) VertexData() []byte {
	stride := m.Layout().ArrayStride
	buf := make([]byte, 0, stride*len(m.Positions))
	put := func(fs ...float32) {
		for _, f := range fs {
			buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(f))
		}
	}
	normals, colors := m.hasNormals(), m.hasColors()
	for i, p := range m.Positions {
		put(p.X, p.Y, p.Z)
		if normals {
			n := m.Normals[i]
			put(n.X, n.Y, n.Z)
		}
		if colors {
			c := m.Colors[i]
			put(c[0], c[1], c[2], c[3])
		}
	}
	return buf
}

// IndexData returns the little-endian uint32 index bytes.
func (m *Mesh) IndexData() []byte {
	buf := make([]byte, 0, 4*len(m.Indices))
	for _, i := range m.Indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}

// Bounds returns the local bounding box of the positions.
func (m *Mesh) Bounds() math.AABB {
	return math.AABBFromPoints(m.Positions)
}

// BladeMesh returns the shared grass blade geometry.
func BladeMesh() *Mesh {
	m := &Mesh{Label: "grass blade", Topology: gpu.TopologyTriangleList}
	for _, p := range grass.BladePositions {
		m.Positions = append(m.Positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
	}
	m.Indices = append(m.Indices, grass.BladeIndices...)
	return m
}

// MeshFromTerrain converts a built ground mesh.
func MeshFromTerrain(label string, t *terrain.Mesh) *Mesh {
	m := &Mesh{
		Label:     label,
		Positions: make([]math.Vec3, len(t.Vertices)),
		Normals:   make([]math.Vec3, len(t.Vertices)),
		Colors:    make([]math.Vec4, len(t.Vertices)),
		Indices:   t.Indices,
		Topology:  gpu.TopologyTriangleList,
	}
	for i, v := range t.Vertices {
		m.Positions[i] = math.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
		m.Normals[i] = math.Vec3{X: v.Normal[0], Y: v.Normal[1], Z: v.Normal[2]}
		m.Colors[i] = math.Vec4(v.Color)
	}
	return m
}
