package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
	"github.com/Faultbox/birdylook/pkg/math"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func placement(rects ...formats.GrassRect) *formats.PlacementMap {
	m := &formats.PlacementMap{}
	for _, r := range rects {
		m.Records = append(m.Records, formats.PlacementRecord{Kind: formats.RecordRect, Rect: r})
	}
	return m
}

func generator(seed uint64) *grass.Generator {
	opts := grass.DefaultOptions()
	opts.Seed = seed
	return grass.NewGenerator(opts)
}

func TestNodeHierarchy(t *testing.T) {
	s := New()
	root := s.AddNode("Root", math.FromTranslation(1, 0, 0), 0)
	child := s.AddNode("Child", math.FromTranslation(0, 2, 0), root)

	r, ok := s.Node(root)
	if !ok || len(r.Children) != 1 || r.Children[0] != child {
		t.Fatalf("expected root with one child, got %+v", r)
	}
	if _, ok := s.Node(0); ok {
		t.Error("zero ID should not resolve")
	}
	if _, ok := s.Node(99); ok {
		t.Error("out-of-range ID should not resolve")
	}

	world := s.WorldTransform(child)
	if got := world.Translation(); got != (math.Vec3{X: 1, Y: 2, Z: 0}) {
		t.Errorf("expected world translation (1,2,0), got %+v", got)
	}
}

func TestGroundSurface(t *testing.T) {
	s := New()
	mesh := terrain.BuildGroundMesh(terrain.GroundParams{Size: 128, Segments: 4})
	ground, _ := s.AddGround("Ground", math.FromTranslation(5, 1, 5), mesh)

	surface, err := s.GroundSurface(ground)
	if err != nil {
		t.Fatalf("GroundSurface failed: %v", err)
	}
	if len(surface.Positions) != 25 {
		t.Errorf("expected 25 positions, got %d", len(surface.Positions))
	}
	if surface.Bounds.Center.X != 64 {
		t.Errorf("expected bounds center 64, got %v", surface.Bounds.Center.X)
	}
	if surface.Transform.Translation != (math.Vec3{X: 5, Y: 1, Z: 5}) {
		t.Errorf("unexpected transform %+v", surface.Transform.Translation)
	}
}

func TestGroundSurface_MissingMesh(t *testing.T) {
	s := New()
	bare := s.AddNode("GroundBare", math.IdentityTransform(), 0)
	s.AddNode("Decoration", math.IdentityTransform(), bare)

	_, err := s.GroundSurface(bare)
	if !errors.Is(err, ErrMissingGroundMesh) {
		t.Errorf("expected ErrMissingGroundMesh, got %v", err)
	}
	if _, err := s.GroundSurface(42); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestGroundNodes(t *testing.T) {
	s := New()
	s.AddNode("Tree", math.IdentityTransform(), 0)
	g1, _ := s.AddGround("Ground", math.IdentityTransform(), terrain.BuildGroundMesh(terrain.GroundParams{Size: 8, Segments: 1}))
	g2 := s.AddNode("LowerGround", math.IdentityTransform(), 0)

	got := s.GroundNodes()
	if len(got) != 2 || got[0] != g1 || got[1] != g2 {
		t.Errorf("expected [%d %d], got %v", g1, g2, got)
	}
	if meshes := s.GroundMeshes(); len(meshes) != 1 {
		t.Errorf("expected 1 ground mesh node, got %d", len(meshes))
	}
}

func TestSpawnBatch_Regenerate(t *testing.T) {
	s := New()
	ground := s.AddNode("Ground", math.IdentityTransform(), 0)
	blade := s.AddMesh(BladeMesh())

	first := s.SpawnBatch(ground, blade, []grass.BladeInstance{grass.NewBladeInstance(0, 0, 0)})
	b1, _ := s.Batch(first)
	gen1 := b1.Generation
	if !b1.NoFrustumCulling {
		t.Error("grass batches should disable frustum culling")
	}

	second := s.SpawnBatch(ground, blade, []grass.BladeInstance{grass.NewBladeInstance(1, 0, 1), grass.NewBladeInstance(2, 0, 2)})
	if second != first {
		t.Errorf("regeneration should keep batch ID %d, got %d", first, second)
	}
	b2, _ := s.Batch(second)
	if b2.Generation <= gen1 {
		t.Errorf("expected newer generation, got %d after %d", b2.Generation, gen1)
	}
	if len(s.Batches()) != 1 || s.InstanceCount() != 2 {
		t.Errorf("expected one batch with 2 instances, got %d batches, %d instances", len(s.Batches()), s.InstanceCount())
	}

	s.RemoveBatch(second)
	if _, ok := s.BatchFor(ground); ok {
		t.Error("expected no batch after removal")
	}
	third := s.SpawnBatch(ground, blade, nil)
	if third == first {
		t.Error("removed batch IDs should not be reused")
	}
}

func TestGrassLoader(t *testing.T) {
	s := New()
	loader := NewGrassLoader(s, generator(7))
	m := placement(formats.GrassRect{ID: 1, X: 0, Z: 0, W: 4, H: 4}, formats.GrassRect{ID: 0, X: 10, Z: 10, W: 8, H: 8})

	// No ground yet: waits.
	if err := loader.Update(s, m); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if loader.Loaded() {
		t.Fatal("loader should wait for ground nodes")
	}

	mesh := terrain.BuildGroundMesh(terrain.GroundParams{Size: 512, Segments: 8})
	ground, _ := s.AddGround("Ground", math.IdentityTransform(), mesh)

	if err := loader.Update(s, nil); err != nil || loader.Loaded() {
		t.Fatal("loader should wait for the placement map")
	}
	if err := loader.Update(s, m); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !loader.Loaded() {
		t.Fatal("expected loaded after ground and map are present")
	}

	b, ok := s.BatchFor(ground)
	if !ok {
		t.Fatal("expected a batch on the ground")
	}
	if len(b.Instances) != 4 {
		t.Errorf("expected 4 blades, got %d", len(b.Instances))
	}
	if b.Mesh != loader.BladeMesh() {
		t.Errorf("expected blade mesh %d, got %d", loader.BladeMesh(), b.Mesh)
	}
	for _, inst := range b.Instances {
		// 512-unit ground over a 512 grid: one world unit per cell.
		if inst.Position.X < 0 || inst.Position.X >= 4 || inst.Position.Z < 0 || inst.Position.Z >= 4 {
			t.Errorf("blade outside its rect: %+v", inst.Position)
		}
	}

	// Second update is a no-op.
	gen := b.Generation
	loader.Update(s, m)
	if b2, _ := s.BatchFor(ground); b2.Generation != gen {
		t.Error("Update after load should not regenerate")
	}

	if err := loader.Reload(s, placement(formats.GrassRect{ID: 1, W: 8, H: 8})); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	b3, _ := s.BatchFor(ground)
	if len(b3.Instances) != 16 || b3.ID != b.ID {
		t.Errorf("expected regenerated batch %d with 16 blades, got %d with %d", b.ID, b3.ID, len(b3.Instances))
	}

	loader.Clear(s)
	if len(s.Batches()) != 0 || loader.Loaded() {
		t.Error("Clear should remove batches and reset state")
	}
}

func TestGrassLoader_SkipsGroundWithoutMesh(t *testing.T) {
	s := New()
	loader := NewGrassLoader(s, generator(1))
	s.AddNode("GroundBroken", math.IdentityTransform(), 0)
	good, _ := s.AddGround("Ground", math.IdentityTransform(), terrain.BuildGroundMesh(terrain.GroundParams{Size: 512, Segments: 2}))

	err := loader.Update(s, placement(formats.GrassRect{ID: 1, W: 4, H: 4}))
	if !errors.Is(err, ErrMissingGroundMesh) {
		t.Errorf("expected ErrMissingGroundMesh, got %v", err)
	}
	if _, ok := s.BatchFor(good); !ok {
		t.Error("valid ground should still get grass")
	}
	if len(s.Batches()) != 1 {
		t.Errorf("expected 1 batch, got %d", len(s.Batches()))
	}
}

func TestMeshLayout(t *testing.T) {
	blade := BladeMesh()
	l := blade.Layout()
	if l.ArrayStride != 12 || len(l.Attributes) != 1 {
		t.Errorf("blade layout: expected stride 12 with 1 attribute, got %+v", l)
	}
	if got := len(blade.VertexData()); got != 4*12 {
		t.Errorf("expected 48 vertex bytes, got %d", got)
	}
	if got := len(blade.IndexData()); got != 9*4 {
		t.Errorf("expected 36 index bytes, got %d", got)
	}

	ground := MeshFromTerrain("g", terrain.BuildGroundMesh(terrain.GroundParams{Size: 4, Segments: 1}))
	gl := ground.Layout()
	if gl.ArrayStride != 40 {
		t.Errorf("ground layout: expected stride 40, got %d", gl.ArrayStride)
	}
	if a, ok := gl.Attribute(LocationColor); !ok || a.Offset != 24 {
		t.Errorf("expected color at offset 24, got %+v", a)
	}
	if got := len(ground.VertexData()); got != 4*40 {
		t.Errorf("expected 160 vertex bytes, got %d", got)
	}
}
