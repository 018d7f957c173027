package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
)

// GrassLoader spawns one grass batch per ground node once both the placement map
// and the ground meshes are available.
type GrassLoader struct {
	gen    *grass.Generator
	blade  MeshID
	loaded bool
	log    *zap.Logger
}

// NewGrassLoader registers the shared blade mesh in s.
func NewGrassLoader(s *Scene, gen *grass.Generator) *GrassLoader {
	return &GrassLoader{
		gen:   gen,
		blade: s.AddMesh(BladeMesh()),
		log:   logger.Named("scene"),
	}
}

// BladeMesh returns the shared blade mesh handle.
func (l *GrassLoader) BladeMesh() MeshID {
	return l.blade
}

// Loaded reports whether grass has been generated.
func (l *GrassLoader) Loaded() bool {
	return l.loaded
}

// Update generates grass the first time it is called with a map while ground nodes exist.
// Later calls are no-ops until Reload.
func (l *GrassLoader) Update(s *Scene, m *formats.PlacementMap) error {
	if l.loaded || m == nil {
		return nil
	}
	return l.populate(s, m)
}

// Reload regenerates every batch from m.
func (l *GrassLoader) Reload(s *Scene, m *formats.PlacementMap) error {
	l.loaded = false
	return l.Update(s, m)
}

// Clear removes all grass batches and resets the loaded flag.
func (l *GrassLoader) Clear(s *Scene) {
	for _, b := range s.Batches() {
		s.RemoveBatch(b.ID)
	}
	l.loaded = false
}

// populate generates a batch per ground node. A node without a mesh child is skipped
// and reported; the other nodes still get grass.
func (l *GrassLoader) populate(s *Scene, m *formats.PlacementMap) error {
	grounds := s.GroundNodes()
	if len(grounds) == 0 {
		return nil
	}

	var errs []error
	for _, id := range grounds {
		node, _ := s.Node(id)
		surface, err := s.GroundSurface(id)
		if err != nil {
			l.log.Warn("skipping ground", zap.String("node", node.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		scaleX, scaleZ := l.gen.GridScale(surface.Bounds)
		instances := l.gen.Generate(m, surface, scaleX, scaleZ)
		batch := s.SpawnBatch(id, l.blade, instances)

		l.log.Debug("grass batch spawned",
			zap.String("ground", node.Name),
			zap.Uint32("batch", uint32(batch)),
			zap.Int("instances", len(instances)),
			zap.Float32("scale_x", scaleX),
			zap.Float32("scale_z", scaleZ))
	}

	l.loaded = true
	if len(errs) > 0 {
		return fmt.Errorf("populating grass: %w", errors.Join(errs...))
	}
	return nil
}
