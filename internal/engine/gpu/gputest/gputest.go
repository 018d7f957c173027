// Package gputest provides an in-memory gpu.Device and gpu.RenderPass that record calls.
package gputest

import (
	"fmt"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/pkg/math"
)

// Buffer is a recorded buffer with a copy of its contents.
type Buffer struct {
	ID        int
	label     string
	usage     gpu.BufferUsage
	Contents  []byte
	Destroyed bool
}

func (b *Buffer) Label() string          { return b.label }
func (b *Buffer) Size() int              { return len(b.Contents) }
func (b *Buffer) Usage() gpu.BufferUsage { return b.usage }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	ID        int
	desc      gpu.RenderPipelineDescriptor
	Destroyed bool
}

func (p *Pipeline) Label() string                             { return p.desc.Label }
func (p *Pipeline) Descriptor() *gpu.RenderPipelineDescriptor { return &p.desc }

// Device records resource creation. Set MaxBufferBytes to simulate exhaustion
// and PipelineErr to make pipeline creation fail.
type Device struct {
	Buffers   []*Buffer
	Pipelines []*Pipeline

	// MaxBufferBytes caps the total live buffer memory; zero means unlimited.
	MaxBufferBytes int
	PipelineErr    error
}

// NewDevice returns an empty recording device.
func NewDevice() *Device {
	return &Device{}
}

// LiveBytes returns the total size of buffers not yet destroyed.
func (d *Device) LiveBytes() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Destroyed {
			n += b.Size()
		}
	}
	return n
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Destroyed {
			n++
		}
	}
	return n
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if d.MaxBufferBytes > 0 && d.LiveBytes()+len(desc.Contents) > d.MaxBufferBytes {
		return nil, fmt.Errorf("%w: %d bytes for %q", gpu.ErrDeviceOutOfMemory, len(desc.Contents), desc.Label)
	}
	b := &Buffer{
		ID:       len(d.Buffers) + 1,
		label:    desc.Label,
		usage:    desc.Usage,
		Contents: append([]byte(nil), desc.Contents...),
	}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// DestroyBuffer implements gpu.Device.
func (d *Device) DestroyBuffer(buf gpu.Buffer) {
	if b, ok := buf.(*Buffer); ok {
		b.Destroyed = true
	}
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.Pipeline, error) {
	if d.PipelineErr != nil {
		return nil, d.PipelineErr
	}
	p := &Pipeline{ID: len(d.Pipelines) + 1, desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// DestroyPipeline implements gpu.Device.
func (d *Device) DestroyPipeline(gp gpu.Pipeline) {
	if p, ok := gp.(*Pipeline); ok {
		p.Destroyed = true
	}
}

// Op identifies a recorded pass command.
type Op string

// Recorded operations.
const (
	OpSetPipeline     Op = "set-pipeline"
	OpSetUniform      Op = "set-uniform"
	OpSetVertexBuffer Op = "set-vertex-buffer"
	OpSetIndexBuffer  Op = "set-index-buffer"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "draw-indexed"
)

// Command is one recorded pass call.
type Command struct {
	Op        Op
	Pipeline  gpu.Pipeline
	Buffer    gpu.Buffer
	Slot      int
	Uniform   string
	Mat4      math.Mat4
	Vec4      math.Vec4
	Count     int
	Instances int
}

// Pass records every call in order.
type Pass struct {
	Commands []Command
}

// SetPipeline implements gpu.RenderPass.
func (p *Pass) SetPipeline(pl gpu.Pipeline) {
	p.Commands = append(p.Commands, Command{Op: OpSetPipeline, Pipeline: pl})
}

// SetUniformMat4 implements gpu.RenderPass.
func (p *Pass) SetUniformMat4(name string, m math.Mat4) {
	p.Commands = append(p.Commands, Command{Op: OpSetUniform, Uniform: name, Mat4: m})
}

// SetUniformVec4 implements gpu.RenderPass.
func (p *Pass) SetUniformVec4(name string, v math.Vec4) {
	p.Commands = append(p.Commands, Command{Op: OpSetUniform, Uniform: name, Vec4: v})
}

// SetVertexBuffer implements gpu.RenderPass.
func (p *Pass) SetVertexBuffer(slot int, buf gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: OpSetVertexBuffer, Slot: slot, Buffer: buf})
}

// SetIndexBuffer implements gpu.RenderPass.
func (p *Pass) SetIndexBuffer(buf gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: OpSetIndexBuffer, Buffer: buf})
}

// Draw implements gpu.RenderPass.
func (p *Pass) Draw(vertexCount, instanceCount int) {
	p.Commands = append(p.Commands, Command{Op: OpDraw, Count: vertexCount, Instances: instanceCount})
}

// DrawIndexed implements gpu.RenderPass.
func (p *Pass) DrawIndexed(indexCount, instanceCount int) {
	p.Commands = append(p.Commands, Command{Op: OpDrawIndexed, Count: indexCount, Instances: instanceCount})
}

// Draws returns only the draw commands.
func (p *Pass) Draws() []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded commands.
func (p *Pass) Reset() {
	p.Commands = p.Commands[:0]
}

var (
	_ gpu.Device     = (*Device)(nil)
	_ gpu.RenderPass = (*Pass)(nil)
)
