// Package glgpu implements the gpu interfaces on OpenGL 4.1 core.
package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/shader"
	"github.com/Faultbox/birdylook/internal/logger"
)

// Device is an OpenGL-backed gpu.Device.
// IMPORTANT: Must be created AFTER the OpenGL context is current.
type Device struct {
	log *zap.Logger
}

// New initializes OpenGL function pointers and default state.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{log: logger.Named("gl")}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return d, nil
}

// buffer is a GL buffer object.
type buffer struct {
	id    uint32
	label string
	size  int
	usage gpu.BufferUsage
}

func (b *buffer) Label() string          { return b.label }
func (b *buffer) Size() int              { return b.size }
func (b *buffer) Usage() gpu.BufferUsage { return b.usage }

// CreateBuffer allocates a buffer and uploads desc.Contents.
// GL_OUT_OF_MEMORY is reported as gpu.ErrDeviceOutOfMemory.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	drainErrors()

	b := &buffer{label: desc.Label, size: len(desc.Contents), usage: desc.Usage}
	gl.GenBuffers(1, &b.id)
	// Upload through the copy-write target so index buffers need no bound VAO.
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)

	hint := uint32(gl.STATIC_DRAW)
	if desc.Usage.Has(gpu.BufferUsageCopyDst) {
		hint = gl.DYNAMIC_DRAW
	}
	if len(desc.Contents) > 0 {
		gl.BufferData(gl.COPY_WRITE_BUFFER, len(desc.Contents), gl.Ptr(desc.Contents), hint)
	} else {
		gl.BufferData(gl.COPY_WRITE_BUFFER, 0, nil, hint)
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
	case gl.OUT_OF_MEMORY:
		gl.DeleteBuffers(1, &b.id)
		return nil, fmt.Errorf("%w: %d bytes for %q", gpu.ErrDeviceOutOfMemory, b.size, b.label)
	default:
		gl.DeleteBuffers(1, &b.id)
		return nil, fmt.Errorf("creating buffer %q: GL error 0x%x", b.label, code)
	}

	d.log.Debug("buffer created",
		zap.String("label", b.label),
		zap.Uint32("id", b.id),
		zap.Int("bytes", b.size))
	return b, nil
}

// DestroyBuffer releases a buffer created by this device.
func (d *Device) DestroyBuffer(buf gpu.Buffer) {
	b, ok := buf.(*buffer)
	if !ok || b.id == 0 {
		return
	}
	gl.DeleteBuffers(1, &b.id)
	b.id = 0
}

// pipeline is a linked program plus the vertex array capturing its attribute state.
type pipeline struct {
	desc     gpu.RenderPipelineDescriptor
	program  uint32
	vao      uint32
	uniforms map[string]int32
}

func (p *pipeline) Label() string                             { return p.desc.Label }
func (p *pipeline) Descriptor() *gpu.RenderPipelineDescriptor { return &p.desc }

func (p *pipeline) uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := shader.GetUniform(p.program, name)
	p.uniforms[name] = loc
	return loc
}

// CreateRenderPipeline compiles the descriptor's shaders with its defines.
func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.Pipeline, error) {
	program, err := shader.CompileProgram(desc.Shader.Vertex, desc.Shader.Fragment, desc.Shader.Defines...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpu.ErrShaderCompile, desc.Label, err)
	}

	p := &pipeline{
		desc:     *desc,
		program:  program,
		uniforms: make(map[string]int32),
	}
	p.desc.VertexBuffers = append([]gpu.VertexBufferLayout(nil), desc.VertexBuffers...)
	gl.GenVertexArrays(1, &p.vao)

	d.log.Debug("pipeline created",
		zap.String("label", desc.Label),
		zap.Uint32("program", program),
		zap.Int("streams", len(desc.VertexBuffers)),
		zap.Strings("defines", desc.Shader.Defines))
	return p, nil
}

// DestroyPipeline releases the program and vertex array.
func (d *Device) DestroyPipeline(gp gpu.Pipeline) {
	p, ok := gp.(*pipeline)
	if !ok {
		return
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// drainErrors clears stale GL errors so the next check reflects only new calls.
func drainErrors() {
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}
