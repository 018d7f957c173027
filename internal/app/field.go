package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/assets"
	"github.com/Faultbox/birdylook/internal/config"
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/scene"
	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
	"github.com/Faultbox/birdylook/pkg/math"
)

// GroundName is the node name of the procedural ground.
const GroundName = "Ground"

// Field is the viewer's scene state without any window or GPU: the ground,
// the placement map and the grass generated from it.
type Field struct {
	cfg       *config.Config
	assets    *assets.Manager
	scene     *scene.Scene
	loader    *scene.GrassLoader
	ground    scene.NodeID
	bounds    math.AABB
	placement *formats.PlacementMap
	log       *zap.Logger
}

// GeneratorOptions maps the grass config section onto generator options.
func GeneratorOptions(c config.GrassConfig) grass.Options {
	return grass.Options{
		Seed:              c.Seed,
		GridResolution:    c.GridResolution,
		BladeArea:         c.BladeArea,
		Sampler:           grass.SamplerKind(c.Sampler),
		EarlyExitEpsilon:  c.EarlyExitEpsilon,
		SearchRadius:      c.SearchRadius,
		PerBladeHeight:    c.PerBladeHeight,
		CoverageThreshold: c.CoverageThreshold,
		MinScale:          c.MinScale,
		MaxScale:          c.MaxScale,
		Color:             math.Vec4(c.Color),
		CapacityHint:      c.CapacityHint,
	}
}

// NewField builds the procedural ground described by cfg.Scene. Grass is
// generated by Load once the placement map is read.
func NewField(cfg *config.Config, m *assets.Manager) *Field {
	s := scene.New()
	mesh := terrain.BuildGroundMesh(terrain.GroundParams{
		Size:       cfg.Scene.GroundSize,
		Segments:   cfg.Scene.GroundSegments,
		HillHeight: cfg.Scene.HillHeight,
	})
	ground, _ := s.AddGround(GroundName, math.IdentityTransform(), mesh)

	f := &Field{
		cfg:    cfg,
		assets: m,
		scene:  s,
		loader: scene.NewGrassLoader(s, grass.NewGenerator(GeneratorOptions(cfg.Grass))),
		ground: ground,
		bounds: mesh.Bounds.AABB(),
		log:    logger.Named("field"),
	}
	f.log.Info("ground built",
		zap.Float32("size", cfg.Scene.GroundSize),
		zap.Int("segments", cfg.Scene.GroundSegments),
		zap.Int("vertices", len(mesh.Vertices)))
	return f
}

// Scene returns the scene grass is spawned into.
func (f *Field) Scene() *scene.Scene {
	return f.scene
}

// Bounds returns the ground bounds, for framing the camera.
func (f *Field) Bounds() math.AABB {
	return f.bounds
}

// PlacementName returns the placement map asset name.
func (f *Field) PlacementName() string {
	return f.cfg.Assets.PlacementMap
}

// Load reads the placement map and generates grass for every ground.
// A missing or undecodable map leaves the scene without grass.
func (f *Field) Load() error {
	pm, err := f.assets.LoadPlacement(f.PlacementName())
	if err != nil {
		f.log.Error("placement map unavailable, no grass", zap.Error(err))
		return err
	}
	f.placement = pm
	if err := f.loader.Update(f.scene, pm); err != nil {
		return err
	}
	f.logTotals("grass generated")
	return nil
}

// Reload regenerates grass from the current placement file. When the new file
// cannot be read or decoded the previous grass stays in place.
func (f *Field) Reload() error {
	f.assets.Invalidate(f.PlacementName())
	pm, err := f.assets.LoadPlacement(f.PlacementName())
	if err != nil {
		f.log.Warn("placement reload failed, keeping current grass", zap.Error(err))
		return fmt.Errorf("reloading placement map: %w", err)
	}
	f.placement = pm
	if err := f.loader.Reload(f.scene, pm); err != nil {
		return err
	}
	f.logTotals("grass regenerated")
	return nil
}

// InstanceCount returns the number of blades across all batches.
func (f *Field) InstanceCount() int {
	return f.scene.InstanceCount()
}

func (f *Field) logTotals(msg string) {
	f.log.Info(msg,
		zap.Int("batches", len(f.scene.Batches())),
		zap.Int("blades", f.scene.InstanceCount()),
		zap.Stringer("encoding", f.placement.Encoding))
}
