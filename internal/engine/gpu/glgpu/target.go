package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/birdylook/pkg/math"
)

// Target is an offscreen render target. Color is RGBA16F for HDR views and RGBA8
// otherwise; both color and depth are multisampled when samples > 1. Present
// resolves it into a single-sample texture and copies that to the window.
type Target struct {
	fbo     uint32
	color   uint32 // renderbuffer
	depth   uint32 // renderbuffer
	resolve uint32 // single-sample framebuffer
	texture uint32 // resolve color attachment
	width   int32
	height  int32
	samples int32
	hdr     bool
}

// NewTarget creates a target of the given size.
func (d *Device) NewTarget(width, height int32, samples int, hdr bool) (*Target, error) {
	if samples < 1 {
		samples = 1
	}
	t := &Target{
		width:   max(width, 1),
		height:  max(height, 1),
		samples: int32(samples),
		hdr:     hdr,
	}
	if err := t.create(); err != nil {
		return nil, fmt.Errorf("creating render target: %w", err)
	}
	return t, nil
}

func (t *Target) colorFormat() uint32 {
	if t.hdr {
		return gl.RGBA16F
	}
	return gl.RGBA8
}

func (t *Target) create() error {
	// Multisampled render framebuffer
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	gl.GenRenderbuffers(1, &t.color)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.color)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, t.samples, t.colorFormat(), t.width, t.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, t.color)

	gl.GenRenderbuffers(1, &t.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depth)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, t.samples, gl.DEPTH_COMPONENT24, t.width, t.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depth)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return fmt.Errorf("render framebuffer incomplete: 0x%x", status)
	}

	// Single-sample resolve framebuffer
	gl.GenFramebuffers(1, &t.resolve)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.resolve)

	gl.GenTextures(1, &t.texture)
	gl.BindTexture(gl.TEXTURE_2D, t.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(t.colorFormat()), t.width, t.height, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.texture, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return fmt.Errorf("resolve framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// BeginTargetPass binds the target, clears it and returns a pass drawing into it.
func (d *Device) BeginTargetPass(t *Target, clear math.Vec4) *Pass {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	return d.BeginPass(int(t.width), int(t.height), clear)
}

// Present resolves the target and copies it to the window framebuffer of the given size.
func (t *Target) Present(width, height int32) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, t.resolve)
	gl.BlitFramebuffer(0, 0, t.width, t.height, 0, 0, t.width, t.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.resolve)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, t.width, t.height, 0, 0, width, height, gl.COLOR_BUFFER_BIT, gl.LINEAR)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int32) {
	return t.width, t.height
}

// Resize recreates the attachments if the dimensions changed.
func (t *Target) Resize(width, height int32) error {
	width, height = max(width, 1), max(height, 1)
	if width == t.width && height == t.height {
		return nil
	}
	t.Destroy()
	t.width, t.height = width, height
	return t.create()
}

// ReadPixels returns the last resolved frame as RGBA8, bottom row first.
// HDR values are clamped to [0, 1].
func (t *Target) ReadPixels() []byte {
	pixels := make([]byte, t.width*t.height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.resolve)
	gl.ReadPixels(0, 0, t.width, t.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	return pixels
}

// Destroy releases all OpenGL resources.
func (t *Target) Destroy() {
	for _, fbo := range []*uint32{&t.fbo, &t.resolve} {
		if *fbo != 0 {
			gl.DeleteFramebuffers(1, fbo)
			*fbo = 0
		}
	}
	for _, rb := range []*uint32{&t.color, &t.depth} {
		if *rb != 0 {
			gl.DeleteRenderbuffers(1, rb)
			*rb = 0
		}
	}
	if t.texture != 0 {
		gl.DeleteTextures(1, &t.texture)
		t.texture = 0
	}
}

// ReadPixels reads the window back buffer as RGBA8, bottom row first.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}
