// Package gpu defines the device and render pass interfaces used by the renderer,
// along with the vertex layout and pipeline descriptor types they consume.
package gpu

import (
	"encoding/binary"
	"errors"
	"hash/fnv"

	"github.com/Faultbox/birdylook/pkg/math"
)

// GPU errors.
var (
	ErrDeviceOutOfMemory = errors.New("gpu: device out of memory")
	ErrInvalidBuffer     = errors.New("gpu: invalid buffer")
	ErrShaderCompile     = errors.New("gpu: shader compilation failed")
)

// BufferUsage is a bit set of the ways a buffer may be bound.
type BufferUsage uint32

// Buffer usages.
const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageCopyDst
)

// Has reports whether all bits of flag are set.
func (u BufferUsage) Has(flag BufferUsage) bool {
	return u&flag == flag
}

// BufferDescriptor describes a buffer created with initial contents.
type BufferDescriptor struct {
	Label    string
	Usage    BufferUsage
	Contents []byte
}

// Buffer is a device-owned buffer handle.
type Buffer interface {
	Label() string
	Size() int
	Usage() BufferUsage
}

// Pipeline is a compiled render pipeline handle.
type Pipeline interface {
	Label() string
	Descriptor() *RenderPipelineDescriptor
}

// Device creates and destroys GPU resources.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	DestroyBuffer(buf Buffer)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (Pipeline, error)
	DestroyPipeline(p Pipeline)
}

// RenderPass records draw commands against bound state.
type RenderPass interface {
	SetPipeline(p Pipeline)
	SetUniformMat4(name string, m math.Mat4)
	SetUniformVec4(name string, v math.Vec4)
	SetVertexBuffer(slot int, buf Buffer)
	SetIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount int)
	DrawIndexed(indexCount, instanceCount int)
}

// VertexFormat is the type of a single vertex attribute.
type VertexFormat uint8

// Vertex formats.
const (
	VertexFormatFloat32 VertexFormat = iota + 1
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// Components returns the number of float components.
func (f VertexFormat) Components() int {
	switch f {
	case VertexFormatFloat32:
		return 1
	case VertexFormatFloat32x2:
		return 2
	case VertexFormatFloat32x3:
		return 3
	case VertexFormatFloat32x4:
		return 4
	default:
		return 0
	}
}

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() int {
	return f.Components() * 4
}

// VertexStepMode selects whether a stream advances per vertex or per instance.
type VertexStepMode uint8

// Step modes.
const (
	StepModeVertex VertexStepMode = iota
	StepModeInstance
)

// VertexAttribute locates one attribute inside a vertex buffer.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         int
	ShaderLocation uint32
}

// VertexBufferLayout describes one vertex stream.
type VertexBufferLayout struct {
	ArrayStride int
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

// Attribute returns the attribute bound to location, if any.
func (l VertexBufferLayout) Attribute(location uint32) (VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.ShaderLocation == location {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// Hash returns a stable FNV-1a hash of the layout.
func (l VertexBufferLayout) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	write(uint32(l.ArrayStride))
	write(uint32(l.StepMode))
	for _, a := range l.Attributes {
		write(uint32(a.Format))
		write(uint32(a.Offset))
		write(a.ShaderLocation)
	}
	return h.Sum64()
}

// PrimitiveTopology is how vertices assemble into primitives.
type PrimitiveTopology uint8

// Topologies.
const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// String returns a human-readable topology name.
func (t PrimitiveTopology) String() string {
	switch t {
	case TopologyTriangleList:
		return "triangle-list"
	case TopologyTriangleStrip:
		return "triangle-strip"
	case TopologyLineList:
		return "line-list"
	case TopologyPointList:
		return "point-list"
	default:
		return "unknown"
	}
}

// ShaderSource holds the program sources for a pipeline.
type ShaderSource struct {
	Label    string
	Vertex   string
	Fragment string
	// Defines are injected as "#define NAME" after the version directive.
	Defines []string
}

// RenderPipelineDescriptor describes a render pipeline variant.
type RenderPipelineDescriptor struct {
	Label         string
	Shader        ShaderSource
	VertexBuffers []VertexBufferLayout
	Topology      PrimitiveTopology
	SampleCount   int
	HDR           bool
	DepthWrite    bool
	Blend         bool
	CullBackFaces bool
}
