package glgpu

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/pkg/math"
)

// Pass is an immediate-mode gpu.RenderPass on the default framebuffer.
type Pass struct {
	d        *Device
	pipeline *pipeline
}

// BeginPass clears the framebuffer and sets the viewport.
func (d *Device) BeginPass(width, height int, clear math.Vec4) *Pass {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return &Pass{d: d}
}

// End unbinds pass state.
func (p *Pass) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	p.pipeline = nil
}

// SetPipeline binds the program, its vertex array and fixed-function state.
func (p *Pass) SetPipeline(gp gpu.Pipeline) {
	pl, ok := gp.(*pipeline)
	if !ok {
		p.d.log.Warn("foreign pipeline ignored")
		return
	}
	p.pipeline = pl
	gl.UseProgram(pl.program)
	gl.BindVertexArray(pl.vao)

	desc := &pl.desc
	gl.DepthMask(desc.DepthWrite)
	setCap(gl.BLEND, desc.Blend)
	if desc.Blend {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	setCap(gl.CULL_FACE, desc.CullBackFaces)
	setCap(gl.MULTISAMPLE, desc.SampleCount > 1)
}

// SetUniformMat4 sets a mat4 uniform on the bound pipeline.
func (p *Pass) SetUniformMat4(name string, m math.Mat4) {
	if p.pipeline == nil {
		return
	}
	if loc := p.pipeline.uniform(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

// SetUniformVec4 sets a vec4 uniform on the bound pipeline.
func (p *Pass) SetUniformVec4(name string, v math.Vec4) {
	if p.pipeline == nil {
		return
	}
	if loc := p.pipeline.uniform(name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

// SetVertexBuffer binds buf to stream slot and points the slot's attributes at it.
// Instance streams get an attribute divisor of 1.
func (p *Pass) SetVertexBuffer(slot int, gb gpu.Buffer) {
	b, ok := gb.(*buffer)
	if p.pipeline == nil || !ok || b.id == 0 {
		return
	}
	layouts := p.pipeline.desc.VertexBuffers
	if slot < 0 || slot >= len(layouts) {
		p.d.log.Warn("vertex buffer slot out of range",
			zap.Int("slot", slot),
			zap.String("pipeline", p.pipeline.desc.Label))
		return
	}
	layout := layouts[slot]

	var divisor uint32
	if layout.StepMode == gpu.StepModeInstance {
		divisor = 1
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	for _, a := range layout.Attributes {
		gl.EnableVertexAttribArray(a.ShaderLocation)
		gl.VertexAttribPointerWithOffset(a.ShaderLocation, int32(a.Format.Components()), gl.FLOAT, false,
			int32(layout.ArrayStride), uintptr(a.Offset))
		gl.VertexAttribDivisor(a.ShaderLocation, divisor)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// SetIndexBuffer binds a uint32 index buffer to the pipeline's vertex array.
func (p *Pass) SetIndexBuffer(gb gpu.Buffer) {
	b, ok := gb.(*buffer)
	if p.pipeline == nil || !ok || b.id == 0 {
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
}

// Draw issues a non-indexed instanced draw.
func (p *Pass) Draw(vertexCount, instanceCount int) {
	if p.pipeline == nil {
		return
	}
	gl.DrawArraysInstanced(mode(p.pipeline.desc.Topology), 0, int32(vertexCount), int32(instanceCount))
}

// DrawIndexed issues an indexed instanced draw.
func (p *Pass) DrawIndexed(indexCount, instanceCount int) {
	if p.pipeline == nil {
		return
	}
	gl.DrawElementsInstanced(mode(p.pipeline.desc.Topology), int32(indexCount), gl.UNSIGNED_INT, nil, int32(instanceCount))
}

func mode(t gpu.PrimitiveTopology) uint32 {
	switch t {
	case gpu.TopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.TopologyLineList:
		return gl.LINES
	case gpu.TopologyPointList:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func setCap(c uint32, on bool) {
	if on {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}
