package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/birdylook/internal/assets"
	"github.com/Faultbox/birdylook/internal/config"
	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/gpu/gputest"
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/render"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
	"github.com/Faultbox/birdylook/pkg/math"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

func testConfig(t *testing.T, placement string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.Root = t.TempDir()
	cfg.Grass.Seed = 7
	cfg.Scene.GroundSize = 64
	cfg.Scene.GroundSegments = 16
	writePlacement(t, cfg, placement)
	return cfg
}

func writePlacement(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	path := filepath.Join(cfg.Assets.Root, filepath.FromSlash(cfg.Assets.PlacementMap))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestGeneratorOptions(t *testing.T) {
	c := config.Default().Grass
	c.Sampler = config.SamplerGrid
	c.Color = [4]float32{1, 0, 0, 1}

	opts := GeneratorOptions(c)
	if opts.Sampler != grass.SamplerGrid {
		t.Errorf("expected grid sampler, got %s", opts.Sampler)
	}
	if opts.Color != (math.Vec4{1, 0, 0, 1}) {
		t.Errorf("unexpected color %v", opts.Color)
	}
	if opts.BladeArea != 4 || opts.GridResolution != formats.PlacementGridResolution {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

func TestFieldLoad(t *testing.T) {
	cfg := testConfig(t, "GrassDataAsset([[1, 0, 0, 8, 8], [0, 100, 100, 8, 8], [2, 256, 256, 4, 2]])")
	f := NewField(cfg, assets.NewManager(cfg.Assets.Root))

	if err := f.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// 8*8/4 + 4*2/4
	if n := f.InstanceCount(); n != 18 {
		t.Errorf("expected 18 blades, got %d", n)
	}
	if len(f.Scene().Batches()) != 1 {
		t.Errorf("expected one batch for the single ground, got %d", len(f.Scene().Batches()))
	}
	if f.Bounds().HalfExtents.X != 32 {
		t.Errorf("expected ground half width 32, got %v", f.Bounds().HalfExtents.X)
	}
}

func TestFieldLoadMissingMap(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Assets.PlacementMap = "layers/nothing.ron"
	f := NewField(cfg, assets.NewManager(cfg.Assets.Root))

	if err := f.Load(); err == nil {
		t.Fatal("expected error for missing placement map")
	}
	if f.InstanceCount() != 0 || len(f.Scene().Batches()) != 0 {
		t.Error("scene should have no grass")
	}
}

func TestFieldReload(t *testing.T) {
	cfg := testConfig(t, "[[1, 0, 0, 4, 4]]")
	m := assets.NewManager(cfg.Assets.Root)
	f := NewField(cfg, m)
	if err := f.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := f.Scene().Batches()[0]

	writePlacement(t, cfg, "[[1, 0, 0, 8, 4]]")
	if err := f.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	after := f.Scene().Batches()[0]
	if after.ID != before.ID {
		t.Errorf("regenerated batch should keep id %d, got %d", before.ID, after.ID)
	}
	if after.Generation == before.Generation {
		t.Error("regenerated batch should get a new generation")
	}
	if len(after.Instances) != 8 {
		t.Errorf("expected 8 blades after reload, got %d", len(after.Instances))
	}

	// A broken file keeps the current grass.
	writePlacement(t, cfg, "[[1, 0, 0")
	err := f.Reload()
	if !errors.Is(err, formats.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if n := f.InstanceCount(); n != 8 {
		t.Errorf("expected previous 8 blades to remain, got %d", n)
	}
}

func TestFieldRendersInstanced(t *testing.T) {
	cfg := testConfig(t, "[[1, 0, 0, 16, 16]]")
	f := NewField(cfg, assets.NewManager(cfg.Assets.Root))
	if err := f.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d := gputest.NewDevice()
	r := render.NewRenderer(d,
		gpu.ShaderSource{Label: "grass"},
		gpu.ShaderSource{Label: "ground"})
	defer r.Close()

	view := render.View{
		View:       math.LookAt(math.Vec3{X: 32, Y: 40, Z: 100}, f.Bounds().Center, math.Vec3{Y: 1}),
		Projection: math.Perspective(0.8, 1.5, 0.1, 1000),
		MSAA:       4,
	}
	pass := &gputest.Pass{}
	if err := r.Frame(f.Scene(), []render.View{view}, pass); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	draws := pass.Draws()
	if len(draws) != 2 {
		t.Fatalf("expected ground and grass draws, got %d", len(draws))
	}
	if draws[1].Instances != 64 || draws[1].Count != 9 {
		t.Errorf("expected 9 indices x64 instances, got %+v", draws[1])
	}
}
