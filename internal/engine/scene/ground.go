package scene

import (
	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/pkg/math"
)

// AddGround creates a ground node at t with a child node carrying mesh.
// The child's bounds come from the mesh, as the placement grid scale is derived from them.
func (s *Scene) AddGround(name string, t math.Transform, mesh *terrain.Mesh) (NodeID, MeshID) {
	ground := s.AddNode(name, t, 0)
	child := s.AddNode(name+"Mesh", math.IdentityTransform(), ground)
	meshID := s.AddMesh(MeshFromTerrain(name, mesh))
	s.SetMesh(child, meshID, mesh.Bounds.AABB())
	return ground, meshID
}

// GroundMeshes returns every (node, mesh) pair holding ground geometry, for drawing.
func (s *Scene) GroundMeshes() []*Node {
	var out []*Node
	for _, id := range s.GroundNodes() {
		n, _ := s.Node(id)
		for _, cid := range n.Children {
			if c, ok := s.Node(cid); ok && c.Mesh != 0 {
				out = append(out, c)
			}
		}
	}
	return out
}

// WorldTransform composes the transforms from the root down to id.
func (s *Scene) WorldTransform(id NodeID) math.Mat4 {
	n, ok := s.Node(id)
	if !ok {
		return math.Identity()
	}
	m := n.Transform.Matrix()
	for p := n.Parent; p != 0; {
		pn, ok := s.Node(p)
		if !ok {
			break
		}
		m = pn.Transform.Matrix().Mul(m)
		p = pn.Parent
	}
	return m
}
