package render

import (
	"errors"
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/scene"
)

// ErrPipelineSpecialization is returned when no pipeline variant can be built for a key and layout.
var ErrPipelineSpecialization = errors.New("pipeline specialization failed")

// Instance stream attribute locations.
const (
	LocationInstancePosScale uint32 = 1
	LocationInstanceColor    uint32 = 2
)

// PipelineKey packs the view and mesh state a pipeline variant depends on.
//
//	bit 0      HDR
//	bits 1-3   log2(MSAA samples)
//	bits 4-6   primitive topology
type PipelineKey uint32

const (
	keyHDR           PipelineKey = 1
	keyMSAAShift                 = 1
	keyMSAAMask      PipelineKey = 0x7
	keyTopologyShift             = 4
	keyTopologyMask  PipelineKey = 0x7
)

// NewPipelineKey builds a key. Sample counts are rounded down to a power of two.
func NewPipelineKey(msaa int, hdr bool, topology gpu.PrimitiveTopology) PipelineKey {
	if msaa < 1 {
		msaa = 1
	}
	k := PipelineKey(bits.Len(uint(msaa))-1) & keyMSAAMask << keyMSAAShift
	k |= PipelineKey(topology) & keyTopologyMask << keyTopologyShift
	if hdr {
		k |= keyHDR
	}
	return k
}

// MSAASamples returns the sample count.
func (k PipelineKey) MSAASamples() int {
	return 1 << ((k >> keyMSAAShift) & keyMSAAMask)
}

// HDR reports whether the view renders to an HDR target.
func (k PipelineKey) HDR() bool {
	return k&keyHDR != 0
}

// Topology returns the primitive topology.
func (k PipelineKey) Topology() gpu.PrimitiveTopology {
	return gpu.PrimitiveTopology((k >> keyTopologyShift) & keyTopologyMask)
}

// Specializer builds a pipeline descriptor for a key and mesh layout.
type Specializer interface {
	Name() string
	Specialize(key PipelineKey, layout gpu.VertexBufferLayout) (*gpu.RenderPipelineDescriptor, error)
}

// MeshPipeline draws plain meshes with one per-vertex stream.
type MeshPipeline struct {
	Shader gpu.ShaderSource
}

// Name implements Specializer.
func (p *MeshPipeline) Name() string { return "mesh" }

// Specialize implements Specializer. The layout must provide a Float32x3 position at location 0.
func (p *MeshPipeline) Specialize(key PipelineKey, layout gpu.VertexBufferLayout) (*gpu.RenderPipelineDescriptor, error) {
	pos, ok := layout.Attribute(scene.LocationPosition)
	if !ok || pos.Format != gpu.VertexFormatFloat32x3 {
		return nil, fmt.Errorf("%w: %s: mesh layout lacks a vec3 position at location 0", ErrPipelineSpecialization, p.Name())
	}
	if layout.StepMode != gpu.StepModeVertex {
		return nil, fmt.Errorf("%w: %s: mesh stream must step per vertex", ErrPipelineSpecialization, p.Name())
	}

	sh := p.Shader
	sh.Defines = append([]string(nil), sh.Defines...)
	if key.HDR() {
		sh.Defines = append(sh.Defines, "HDR")
	}

	return &gpu.RenderPipelineDescriptor{
		Label:         p.Name(),
		Shader:        sh,
		VertexBuffers: []gpu.VertexBufferLayout{layout},
		Topology:      key.Topology(),
		SampleCount:   key.MSAASamples(),
		HDR:           key.HDR(),
		DepthWrite:    true,
		CullBackFaces: true,
	}, nil
}

// InstanceLayout is the per-instance stream of BladeInstance:
// position+scale as a vec4 at location 1, color as a vec4 at location 2.
func InstanceLayout() gpu.VertexBufferLayout {
	return gpu.VertexBufferLayout{
		ArrayStride: grass.InstanceStride,
		StepMode:    gpu.StepModeInstance,
		Attributes: []gpu.VertexAttribute{
			{Format: gpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: LocationInstancePosScale},
			{Format: gpu.VertexFormatFloat32x4, Offset: gpu.VertexFormatFloat32x4.Size(), ShaderLocation: LocationInstanceColor},
		},
	}
}

// GrassPipeline specializes the mesh pipeline with the grass shader and a second,
// per-instance stream.
type GrassPipeline struct {
	Mesh   MeshPipeline
	Shader gpu.ShaderSource
}

// Name implements Specializer.
func (p *GrassPipeline) Name() string { return "grass" }

// Specialize implements Specializer.
func (p *GrassPipeline) Specialize(key PipelineKey, layout gpu.VertexBufferLayout) (*gpu.RenderPipelineDescriptor, error) {
	for _, loc := range []uint32{LocationInstancePosScale, LocationInstanceColor} {
		if _, taken := layout.Attribute(loc); taken {
			return nil, fmt.Errorf("%w: %s: mesh layout uses instance location %d", ErrPipelineSpecialization, p.Name(), loc)
		}
	}

	desc, err := p.Mesh.Specialize(key, layout)
	if err != nil {
		return nil, err
	}

	desc.Label = p.Name()
	defines := desc.Shader.Defines
	desc.Shader = p.Shader
	desc.Shader.Defines = defines
	desc.VertexBuffers = append(desc.VertexBuffers, InstanceLayout())
	// Blades are open tetrahedra seen from every side.
	desc.CullBackFaces = false
	return desc, nil
}

type specKey struct {
	name   string
	key    PipelineKey
	layout uint64
}

// SpecializedPipelines caches compiled pipeline variants keyed by specializer, key and layout.
type SpecializedPipelines struct {
	device gpu.Device
	cache  map[specKey]gpu.Pipeline
	hits   int
	misses int
	log    *zap.Logger
}

// NewSpecializedPipelines creates an empty cache.
func NewSpecializedPipelines(device gpu.Device, log *zap.Logger) *SpecializedPipelines {
	return &SpecializedPipelines{
		device: device,
		cache:  make(map[specKey]gpu.Pipeline),
		log:    log,
	}
}

// Specialize returns the cached variant or builds and compiles a new one.
// Errors wrap ErrPipelineSpecialization.
func (c *SpecializedPipelines) Specialize(s Specializer, key PipelineKey, layout gpu.VertexBufferLayout) (gpu.Pipeline, error) {
	k := specKey{name: s.Name(), key: key, layout: layout.Hash()}
	if p, ok := c.cache[k]; ok {
		c.hits++
		return p, nil
	}

	desc, err := s.Specialize(key, layout)
	if err != nil {
		return nil, err
	}
	p, err := c.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPipelineSpecialization, s.Name(), err)
	}

	c.cache[k] = p
	c.misses++
	c.log.Debug("pipeline specialized",
		zap.String("pipeline", s.Name()),
		zap.Uint32("key", uint32(key)),
		zap.Int("samples", key.MSAASamples()),
		zap.Bool("hdr", key.HDR()),
		zap.Stringer("topology", key.Topology()))
	return p, nil
}

// Stats returns cache hits and misses.
func (c *SpecializedPipelines) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Len returns the number of cached variants.
func (c *SpecializedPipelines) Len() int {
	return len(c.cache)
}

// Clear destroys every cached pipeline.
func (c *SpecializedPipelines) Clear() {
	for k, p := range c.cache {
		c.device.DestroyPipeline(p)
		delete(c.cache, k)
	}
}
