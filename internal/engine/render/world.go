package render

import (
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/scene"
	"github.com/Faultbox/birdylook/pkg/math"
)

// View is one camera the frame is drawn for.
type View struct {
	Name       string
	View       math.Mat4 // world to view
	Projection math.Mat4
	Position   math.Vec3
	MSAA       int
	HDR        bool
}

// ViewProj returns Projection * View.
func (v View) ViewProj() math.Mat4 {
	return v.Projection.Mul(v.View)
}

// Depth returns the view-space depth of a world point, positive in front of the camera.
func (v View) Depth(p math.Vec3) float32 {
	return -v.View.TransformPoint(p).Z
}

// ExtractedMesh is a mesh as seen by the render world.
type ExtractedMesh struct {
	ID      scene.MeshID
	Mesh    *scene.Mesh
	Version uint64
}

// ExtractedBatch is a grass batch as seen by the render world.
type ExtractedBatch struct {
	ID         scene.BatchID
	Mesh       scene.MeshID
	Instances  []grass.BladeInstance
	Model      math.Mat4
	Center     math.Vec3
	Generation uint64
}

// ExtractedGround is a ground mesh to draw once per view.
type ExtractedGround struct {
	Mesh  scene.MeshID
	Model math.Mat4
}

// World is the render-side snapshot rebuilt every frame by the extract stage.
type World struct {
	Views   []View
	Meshes  map[scene.MeshID]ExtractedMesh
	Batches []ExtractedBatch
	Grounds []ExtractedGround
}

// Extract copies the drawable state of s into w. Instance slices are shared:
// batches replace rather than edit them.
func Extract(s *scene.Scene, views []View, w *World) {
	w.Views = append(w.Views[:0], views...)
	w.Batches = w.Batches[:0]
	w.Grounds = w.Grounds[:0]
	if w.Meshes == nil {
		w.Meshes = make(map[scene.MeshID]ExtractedMesh)
	}
	clear(w.Meshes)

	addMesh := func(id scene.MeshID) {
		if _, ok := w.Meshes[id]; ok {
			return
		}
		if m, ok := s.Mesh(id); ok {
			w.Meshes[id] = ExtractedMesh{ID: id, Mesh: m, Version: s.MeshVersion(id)}
		}
	}

	for _, n := range s.GroundMeshes() {
		addMesh(n.Mesh)
		w.Grounds = append(w.Grounds, ExtractedGround{Mesh: n.Mesh, Model: s.WorldTransform(n.ID)})
	}

	for _, b := range s.Batches() {
		addMesh(b.Mesh)
		model := b.Transform.Matrix()
		w.Batches = append(w.Batches, ExtractedBatch{
			ID:         b.ID,
			Mesh:       b.Mesh,
			Instances:  b.Instances,
			Model:      model,
			Center:     model.TransformPoint(b.Bounds.Center),
			Generation: b.Generation,
		})
	}
}
