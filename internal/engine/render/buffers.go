package render

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/internal/engine/grass"
	"github.com/Faultbox/birdylook/internal/engine/scene"
)

// InstanceBuffer is the GPU copy of one batch's instances.
// Length is the instance count at upload time; Buffer is nil when Length is 0.
type InstanceBuffer struct {
	Buffer     gpu.Buffer
	Length     int
	Generation uint64
}

// InstanceBuffers is an arena of instance buffers indexed by batch ID.
// Each batch owns at most one buffer; re-uploading releases the previous one.
type InstanceBuffers struct {
	device  gpu.Device
	entries []*InstanceBuffer
	log     *zap.Logger
}

// NewInstanceBuffers creates an empty arena on device.
func NewInstanceBuffers(device gpu.Device, log *zap.Logger) *InstanceBuffers {
	return &InstanceBuffers{device: device, log: log}
}

func (b *InstanceBuffers) slot(id scene.BatchID) **InstanceBuffer {
	for int(id) > len(b.entries) {
		b.entries = append(b.entries, nil)
	}
	return &b.entries[id-1]
}

// Upload replaces the buffer of batch id with a copy of instances.
// On failure the batch is left without a buffer and the error wraps the device error,
// gpu.ErrDeviceOutOfMemory included.
func (b *InstanceBuffers) Upload(id scene.BatchID, instances []grass.BladeInstance) (gpu.Buffer, error) {
	if id == 0 {
		return nil, fmt.Errorf("upload: batch id 0: %w", gpu.ErrInvalidBuffer)
	}
	b.Release(id)

	entry := &InstanceBuffer{Length: len(instances)}
	if len(instances) > 0 {
		buf, err := b.device.CreateBuffer(gpu.BufferDescriptor{
			Label:    "instance data buffer",
			Usage:    gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
			Contents: grass.PackInstances(instances),
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d (%d instances): %w", id, len(instances), err)
		}
		entry.Buffer = buf
	}
	*b.slot(id) = entry
	return entry.Buffer, nil
}

// Prepare uploads batch if it has no buffer yet or was regenerated since the last upload.
func (b *InstanceBuffers) Prepare(batch ExtractedBatch) error {
	if e, ok := b.Get(batch.ID); ok && e.Generation == batch.Generation {
		return nil
	}
	if _, err := b.Upload(batch.ID, batch.Instances); err != nil {
		return err
	}
	e, _ := b.Get(batch.ID)
	e.Generation = batch.Generation
	b.log.Debug("instance buffer uploaded",
		zap.Uint32("batch", uint32(batch.ID)),
		zap.Int("instances", e.Length),
		zap.Uint64("generation", batch.Generation))
	return nil
}

// Get returns the buffer entry for id.
func (b *InstanceBuffers) Get(id scene.BatchID) (*InstanceBuffer, bool) {
	if id == 0 || int(id) > len(b.entries) || b.entries[id-1] == nil {
		return nil, false
	}
	return b.entries[id-1], true
}

// Release destroys the buffer of id, if any.
func (b *InstanceBuffers) Release(id scene.BatchID) {
	e, ok := b.Get(id)
	if !ok {
		return
	}
	if e.Buffer != nil {
		b.device.DestroyBuffer(e.Buffer)
	}
	b.entries[id-1] = nil
}

// Retain releases every buffer whose batch is not in live.
func (b *InstanceBuffers) Retain(live map[scene.BatchID]bool) {
	for i := range b.entries {
		id := scene.BatchID(i + 1)
		if !live[id] {
			b.Release(id)
		}
	}
}

// ReleaseAll destroys every buffer.
func (b *InstanceBuffers) ReleaseAll() {
	for i := range b.entries {
		b.Release(scene.BatchID(i + 1))
	}
	b.entries = nil
}

// GPUMesh is an uploaded mesh.
type GPUMesh struct {
	Vertex      gpu.Buffer
	Index       gpu.Buffer // nil for non-indexed meshes
	VertexCount int
	IndexCount  int
	Layout      gpu.VertexBufferLayout
	Topology    gpu.PrimitiveTopology
	Version     uint64
}

// Indexed reports whether the mesh draws with an index buffer.
func (m *GPUMesh) Indexed() bool {
	return m.Index != nil
}

// MeshBuffers is an arena of uploaded meshes indexed by mesh ID.
type MeshBuffers struct {
	device gpu.Device
	meshes []*GPUMesh
}

// NewMeshBuffers creates an empty arena on device.
func NewMeshBuffers(device gpu.Device) *MeshBuffers {
	return &MeshBuffers{device: device}
}

// Prepare uploads m unless the same version is already resident.
func (b *MeshBuffers) Prepare(m ExtractedMesh) error {
	if g, ok := b.Get(m.ID); ok && g.Version == m.Version {
		return nil
	}
	b.Release(m.ID)

	vb, err := b.device.CreateBuffer(gpu.BufferDescriptor{
		Label:    m.Mesh.Label + " vertices",
		Usage:    gpu.BufferUsageVertex,
		Contents: m.Mesh.VertexData(),
	})
	if err != nil {
		return fmt.Errorf("mesh %q: %w", m.Mesh.Label, err)
	}

	g := &GPUMesh{
		Vertex:      vb,
		VertexCount: m.Mesh.VertexCount(),
		Layout:      m.Mesh.Layout(),
		Topology:    m.Mesh.Topology,
		Version:     m.Version,
	}
	if m.Mesh.Indexed() {
		ib, err := b.device.CreateBuffer(gpu.BufferDescriptor{
			Label:    m.Mesh.Label + " indices",
			Usage:    gpu.BufferUsageIndex,
			Contents: m.Mesh.IndexData(),
		})
		if err != nil {
			b.device.DestroyBuffer(vb)
			return fmt.Errorf("mesh %q: %w", m.Mesh.Label, err)
		}
		g.Index = ib
		g.IndexCount = len(m.Mesh.Indices)
	}

	for int(m.ID) > len(b.meshes) {
		b.meshes = append(b.meshes, nil)
	}
	b.meshes[m.ID-1] = g
	return nil
}

// Get returns the uploaded mesh for id.
func (b *MeshBuffers) Get(id scene.MeshID) (*GPUMesh, bool) {
	if id == 0 || int(id) > len(b.meshes) || b.meshes[id-1] == nil {
		return nil, false
	}
	return b.meshes[id-1], true
}

// Release destroys the buffers of id, if any.
func (b *MeshBuffers) Release(id scene.MeshID) {
	g, ok := b.Get(id)
	if !ok {
		return
	}
	b.device.DestroyBuffer(g.Vertex)
	if g.Index != nil {
		b.device.DestroyBuffer(g.Index)
	}
	b.meshes[id-1] = nil
}

// ReleaseAll destroys every mesh buffer.
func (b *MeshBuffers) ReleaseAll() {
	for i := range b.meshes {
		b.Release(scene.MeshID(i + 1))
	}
	b.meshes = nil
}
