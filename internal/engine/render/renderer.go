package render

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/scene"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/math"
)

// FrameStats counts the work of the last frame.
type FrameStats struct {
	DrawCalls int
	Instances int
	Skipped   int
	Failed    int
}

// Renderer owns the render world and GPU resources and runs the frame stages.
type Renderer struct {
	device gpu.Device

	world     World
	meshes    *MeshBuffers
	instances *InstanceBuffers
	pipelines *SpecializedPipelines
	phases    []ViewPhases

	grassPipeline  *GrassPipeline
	groundPipeline *MeshPipeline

	// LightDir is the directional light used by the ground shader.
	LightDir math.Vec4

	stats FrameStats
	// reported remembers the batch generation whose draw failure was already logged.
	reported map[scene.BatchID]uint64
	log      *zap.Logger
}

// NewRenderer creates a renderer drawing ground with groundShader and grass with grassShader.
func NewRenderer(device gpu.Device, grassShader, groundShader gpu.ShaderSource) *Renderer {
	log := logger.Named("render")
	ground := &MeshPipeline{Shader: groundShader}
	return &Renderer{
		device:         device,
		meshes:         NewMeshBuffers(device),
		instances:      NewInstanceBuffers(device, log),
		pipelines:      NewSpecializedPipelines(device, log),
		grassPipeline:  &GrassPipeline{Mesh: *ground, Shader: grassShader},
		groundPipeline: ground,
		LightDir:       math.Vec4{-0.4, -1, -0.3, 0},
		reported:       make(map[scene.BatchID]uint64),
		log:            log,
	}
}

// SetShaders swaps shader sources and drops every compiled variant.
func (r *Renderer) SetShaders(grassShader, groundShader gpu.ShaderSource) {
	r.pipelines.Clear()
	r.groundPipeline.Shader = groundShader
	r.grassPipeline.Mesh.Shader = groundShader
	r.grassPipeline.Shader = grassShader
	r.log.Info("shaders replaced")
}

// Stats returns the counters of the last frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Pipelines exposes the specialization cache.
func (r *Renderer) Pipelines() *SpecializedPipelines {
	return r.pipelines
}

// InstanceBuffers exposes the instance buffer arena.
func (r *Renderer) InstanceBuffers() *InstanceBuffers {
	return r.instances
}

// Phases returns the per-view draw lists built by the last queue stage.
func (r *Renderer) Phases() []ViewPhases {
	return r.phases
}

// Frame runs every stage in order for views, drawing into pass.
// Prepare and queue failures skip the affected batch for this frame and are returned joined;
// the remaining batches are still drawn.
func (r *Renderer) Frame(s *scene.Scene, views []View, pass gpu.RenderPass) error {
	var errs []error
	for _, stage := range Stages {
		if err := r.run(stage, s, views, pass); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", stage, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Renderer) run(stage Stage, s *scene.Scene, views []View, pass gpu.RenderPass) error {
	switch stage {
	case StageExtract:
		Extract(s, views, &r.world)
		return nil
	case StagePrepare:
		return r.prepare()
	case StageQueue:
		return r.queue()
	case StageRender:
		r.render(pass)
		return nil
	default:
		return fmt.Errorf("unknown stage %d", stage)
	}
}

// prepare uploads changed meshes and instance buffers and releases buffers of removed batches.
func (r *Renderer) prepare() error {
	var errs []error
	for _, m := range r.world.Meshes {
		if err := r.meshes.Prepare(m); err != nil {
			r.log.Debug("mesh upload failed", zap.Uint32("mesh", uint32(m.ID)), zap.Error(err))
			errs = append(errs, err)
		}
	}

	live := make(map[scene.BatchID]bool, len(r.world.Batches))
	for _, b := range r.world.Batches {
		live[b.ID] = true
		if err := r.instances.Prepare(b); err != nil {
			r.log.Debug("instance upload failed",
				zap.Uint32("batch", uint32(b.ID)),
				zap.Int("instances", len(b.Instances)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	r.instances.Retain(live)
	return errors.Join(errs...)
}

// queue builds one opaque and one transparent list per view.
// Grass goes to the transparent list, sorted back to front; frustum culling is not applied.
func (r *Renderer) queue() error {
	for len(r.phases) < len(r.world.Views) {
		r.phases = append(r.phases, ViewPhases{})
	}
	r.phases = r.phases[:len(r.world.Views)]

	var errs []error
	for i, view := range r.world.Views {
		vp := &r.phases[i]
		vp.View = view
		vp.Opaque.Clear()
		vp.Transparent.Clear()

		for _, g := range r.world.Grounds {
			mesh, ok := r.meshes.Get(g.Mesh)
			if !ok {
				continue
			}
			key := NewPipelineKey(view.MSAA, view.HDR, mesh.Topology)
			p, err := r.pipelines.Specialize(r.groundPipeline, key, mesh.Layout)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			vp.Opaque.Add(PhaseItem{
				Kind:     DrawGround,
				Distance: view.Depth(g.Model.Translation()),
				Pipeline: p,
				Mesh:     g.Mesh,
				Model:    g.Model,
			})
		}

		for _, b := range r.world.Batches {
			mesh, ok := r.meshes.Get(b.Mesh)
			if !ok {
				continue
			}
			key := NewPipelineKey(view.MSAA, view.HDR, mesh.Topology)
			p, err := r.pipelines.Specialize(r.grassPipeline, key, mesh.Layout)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			vp.Transparent.Add(PhaseItem{
				Kind:     DrawGrassInstanced,
				Distance: view.Depth(b.Center),
				Pipeline: p,
				Mesh:     b.Mesh,
				Batch:    b.ID,
				Model:    b.Model,
			})
		}

		vp.Opaque.SortFrontToBack()
		vp.Transparent.SortBackToFront()
	}
	return errors.Join(errs...)
}

// render issues the queued draws: opaque first, then transparent.
func (r *Renderer) render(pass gpu.RenderPass) {
	r.stats = FrameStats{}
	for i := range r.phases {
		vp := &r.phases[i]
		for _, item := range vp.Opaque.Items {
			res, err := DrawMesh(pass, vp.View, item, r.meshes, r.LightDir)
			r.count(res, item, err)
		}
		for _, item := range vp.Transparent.Items {
			res, err := DrawMeshInstanced(pass, vp.View, item, r.meshes, r.instances)
			if res == DrawSuccess {
				ib, _ := r.instances.Get(item.Batch)
				r.stats.Instances += ib.Length
			}
			r.count(res, item, err)
		}
	}
}

func (r *Renderer) count(res DrawResult, item PhaseItem, err error) {
	switch res {
	case DrawSuccess:
		r.stats.DrawCalls++
	case DrawSkipped:
		r.stats.Skipped++
	case DrawFailure:
		r.stats.Failed++
		r.reportFailure(item, err)
	}
}

// reportFailure logs a failed draw once per batch generation.
func (r *Renderer) reportFailure(item PhaseItem, err error) {
	var gen uint64
	for _, b := range r.world.Batches {
		if b.ID == item.Batch {
			gen = b.Generation
		}
	}
	if last, ok := r.reported[item.Batch]; ok && last == gen {
		return
	}
	r.reported[item.Batch] = gen
	r.log.Warn("draw skipped",
		zap.Uint32("batch", uint32(item.Batch)),
		zap.Uint32("mesh", uint32(item.Mesh)),
		zap.Error(err))
}

// Close releases every GPU resource.
func (r *Renderer) Close() {
	r.instances.ReleaseAll()
	r.meshes.ReleaseAll()
	r.pipelines.Clear()
}
