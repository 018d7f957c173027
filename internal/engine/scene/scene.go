// Package scene holds the typed scene graph: ground nodes, their meshes and the
// grass batches spawned on them. Relationships are explicit indices into arenas.
package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/pkg/math"
)

// Scene errors.
var (
	ErrMissingGroundMesh = errors.New("ground node has no mesh child")
	ErrNodeNotFound      = errors.New("scene node not found")
)

// GroundNamePattern marks nodes that receive grass.
const GroundNamePattern = "Ground"

// IDs are 1-based indices into their arena; the zero value means "none".
type (
	NodeID  uint32
	MeshID  uint32
	BatchID uint32
)

// Node is a named transform in the hierarchy, optionally carrying a mesh.
type Node struct {
	ID        NodeID
	Name      string
	Transform math.Transform
	Parent    NodeID
	Children  []NodeID
	Mesh      MeshID
	Bounds    math.AABB
}

// GrassBatch is one drawable group of blades sharing the blade mesh.
// Instances are never edited in place; regeneration replaces the slice and bumps Generation.
type GrassBatch struct {
	ID        BatchID
	Ground    NodeID
	Mesh      MeshID
	Instances []grass.BladeInstance
	// Transform is the batch origin; instance positions are already in world space.
	Transform        math.Transform
	Bounds           math.AABB
	NoFrustumCulling bool
	Generation       uint64
}

// Scene owns node, mesh and batch arenas.
type Scene struct {
	nodes        []*Node
	meshes       []*Mesh
	meshVersions []uint64
	batches      []*GrassBatch
	groundBatch  map[NodeID]BatchID
	generation   uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{groundBatch: make(map[NodeID]BatchID)}
}

// AddNode creates a node under parent (zero for a root).
func (s *Scene) AddNode(name string, t math.Transform, parent NodeID) NodeID {
	id := NodeID(len(s.nodes) + 1)
	s.nodes = append(s.nodes, &Node{ID: id, Name: name, Transform: t, Parent: parent})
	if p, ok := s.Node(parent); ok {
		p.Children = append(p.Children, id)
	}
	return id
}

// Node returns the node with id.
func (s *Scene) Node(id NodeID) (*Node, bool) {
	if id == 0 || int(id) > len(s.nodes) {
		return nil, false
	}
	return s.nodes[id-1], true
}

// Nodes returns all nodes in creation order.
func (s *Scene) Nodes() []*Node {
	return s.nodes
}

// AddMesh stores m and returns its handle.
func (s *Scene) AddMesh(m *Mesh) MeshID {
	s.meshes = append(s.meshes, m)
	s.generation++
	s.meshVersions = append(s.meshVersions, s.generation)
	return MeshID(len(s.meshes))
}

// Mesh returns the mesh with id.
func (s *Scene) Mesh(id MeshID) (*Mesh, bool) {
	if id == 0 || int(id) > len(s.meshes) || s.meshes[id-1] == nil {
		return nil, false
	}
	return s.meshes[id-1], true
}

// MeshVersion changes whenever the mesh behind id is replaced.
func (s *Scene) MeshVersion(id MeshID) uint64 {
	if id == 0 || int(id) > len(s.meshVersions) {
		return 0
	}
	return s.meshVersions[id-1]
}

// ReplaceMesh swaps the mesh behind id.
func (s *Scene) ReplaceMesh(id MeshID, m *Mesh) error {
	if id == 0 || int(id) > len(s.meshes) {
		return fmt.Errorf("mesh %d: %w", id, ErrNodeNotFound)
	}
	s.meshes[id-1] = m
	s.generation++
	s.meshVersions[id-1] = s.generation
	return nil
}

// SetMesh attaches mesh to node with the mesh's local bounds.
func (s *Scene) SetMesh(node NodeID, mesh MeshID, bounds math.AABB) error {
	n, ok := s.Node(node)
	if !ok {
		return fmt.Errorf("node %d: %w", node, ErrNodeNotFound)
	}
	n.Mesh = mesh
	n.Bounds = bounds
	return nil
}

// GroundNodes returns nodes whose name contains "Ground" and that are not mesh holders themselves.
func (s *Scene) GroundNodes() []NodeID {
	var out []NodeID
	for _, n := range s.nodes {
		if strings.Contains(n.Name, GroundNamePattern) && n.Mesh == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// GroundSurface builds the height-sampling view of a ground node from its mesh child.
// When several children carry meshes the last one wins.
func (s *Scene) GroundSurface(id NodeID) (*terrain.GroundSurface, error) {
	n, ok := s.Node(id)
	if !ok {
		return nil, fmt.Errorf("ground %d: %w", id, ErrNodeNotFound)
	}

	var child *Node
	for _, cid := range n.Children {
		if c, ok := s.Node(cid); ok && c.Mesh != 0 {
			child = c
		}
	}
	if child == nil {
		return nil, fmt.Errorf("%q: %w", n.Name, ErrMissingGroundMesh)
	}
	mesh, ok := s.Mesh(child.Mesh)
	if !ok {
		return nil, fmt.Errorf("%q mesh %d: %w", n.Name, child.Mesh, ErrMissingGroundMesh)
	}

	return &terrain.GroundSurface{
		Transform: n.Transform,
		Bounds:    child.Bounds,
		Positions: mesh.Positions,
	}, nil
}

// SpawnBatch creates the grass batch for ground, or regenerates the existing one in place.
// A regenerated batch keeps its ID and gets a new Generation.
func (s *Scene) SpawnBatch(ground NodeID, mesh MeshID, instances []grass.BladeInstance) BatchID {
	s.generation++
	b := &GrassBatch{
		Ground:           ground,
		Mesh:             mesh,
		Instances:        instances,
		Transform:        math.IdentityTransform(),
		Bounds:           grass.Bounds(instances),
		NoFrustumCulling: true,
		Generation:       s.generation,
	}

	if id, ok := s.groundBatch[ground]; ok {
		b.ID = id
		s.batches[id-1] = b
		return id
	}

	b.ID = BatchID(len(s.batches) + 1)
	s.batches = append(s.batches, b)
	s.groundBatch[ground] = b.ID
	return b.ID
}

// Batch returns a live batch.
func (s *Scene) Batch(id BatchID) (*GrassBatch, bool) {
	if id == 0 || int(id) > len(s.batches) || s.batches[id-1] == nil {
		return nil, false
	}
	return s.batches[id-1], true
}

// BatchFor returns the batch spawned on ground.
func (s *Scene) BatchFor(ground NodeID) (*GrassBatch, bool) {
	id, ok := s.groundBatch[ground]
	if !ok {
		return nil, false
	}
	return s.Batch(id)
}

// Batches returns live batches in ID order.
func (s *Scene) Batches() []*GrassBatch {
	out := make([]*GrassBatch, 0, len(s.batches))
	for _, b := range s.batches {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// RemoveBatch drops a batch. Its ID is not reused.
func (s *Scene) RemoveBatch(id BatchID) {
	b, ok := s.Batch(id)
	if !ok {
		return
	}
	delete(s.groundBatch, b.Ground)
	s.batches[id-1] = nil
}

// InstanceCount returns the total blades across live batches.
func (s *Scene) InstanceCount() int {
	n := 0
	for _, b := range s.Batches() {
		n += len(b.Instances)
	}
	return n
}
