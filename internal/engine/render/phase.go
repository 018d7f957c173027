package render

import (
	"cmp"
	"slices"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/scene"
	"github.com/Faultbox/birdylook/pkg/math"
)

// DrawKind selects the draw command for a phase item.
type DrawKind uint8

// Draw kinds.
const (
	DrawGround DrawKind = iota
	DrawGrassInstanced
)

// PhaseItem is one queued draw.
type PhaseItem struct {
	Kind     DrawKind
	Distance float32 // view-space depth
	Pipeline gpu.Pipeline
	Mesh     scene.MeshID
	Batch    scene.BatchID
	Model    math.Mat4
}

// Phase is an ordered draw list for one view.
type Phase struct {
	Items []PhaseItem
}

// Add appends an item.
func (p *Phase) Add(item PhaseItem) {
	p.Items = append(p.Items, item)
}

// Clear empties the list, keeping capacity.
func (p *Phase) Clear() {
	p.Items = p.Items[:0]
}

// SortBackToFront orders items farthest first; ties keep queue order.
func (p *Phase) SortBackToFront() {
	slices.SortStableFunc(p.Items, func(a, b PhaseItem) int {
		return cmp.Compare(b.Distance, a.Distance)
	})
}

// SortFrontToBack orders items nearest first; ties keep queue order.
func (p *Phase) SortFrontToBack() {
	slices.SortStableFunc(p.Items, func(a, b PhaseItem) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
}

// ViewPhases holds the draw lists of one view.
type ViewPhases struct {
	View        View
	Opaque      Phase
	Transparent Phase
}
