package render

import (
	"errors"

	"github.com/Faultbox/birdylook/internal/engine/gpu"
	"github.com/Faultbox/birdylook/pkg/math"
)

// Draw skip reasons.
var (
	ErrMeshNotPrepared       = errors.New("mesh not prepared")
	ErrInstanceBufferMissing = errors.New("instance buffer missing")
)

// DrawResult is the outcome of one draw command.
type DrawResult uint8

// Draw results.
const (
	DrawSuccess DrawResult = iota
	DrawSkipped            // nothing to draw
	DrawFailure            // a required resource is missing
)

// Uniform names shared by the built-in shaders.
const (
	UniformViewProj = "uViewProj"
	UniformModel    = "uModel"
	UniformLightDir = "uLightDir"
)

// DrawMeshInstanced binds the mesh at slot 0 and the batch's instances at slot 1 and issues
// one instanced draw with instance count equal to the batch length.
func DrawMeshInstanced(pass gpu.RenderPass, view View, item PhaseItem, meshes *MeshBuffers, instances *InstanceBuffers) (DrawResult, error) {
	mesh, ok := meshes.Get(item.Mesh)
	if !ok {
		return DrawFailure, ErrMeshNotPrepared
	}
	ib, ok := instances.Get(item.Batch)
	if !ok {
		return DrawFailure, ErrInstanceBufferMissing
	}
	if ib.Length == 0 || ib.Buffer == nil {
		return DrawSkipped, nil
	}

	pass.SetPipeline(item.Pipeline)
	pass.SetUniformMat4(UniformViewProj, view.ViewProj())
	pass.SetUniformMat4(UniformModel, item.Model)
	pass.SetVertexBuffer(0, mesh.Vertex)
	pass.SetVertexBuffer(1, ib.Buffer)
	drawMesh(pass, mesh, ib.Length)
	return DrawSuccess, nil
}

// DrawMesh draws one non-instanced mesh lit from lightDir.
func DrawMesh(pass gpu.RenderPass, view View, item PhaseItem, meshes *MeshBuffers, lightDir math.Vec4) (DrawResult, error) {
	mesh, ok := meshes.Get(item.Mesh)
	if !ok {
		return DrawFailure, ErrMeshNotPrepared
	}
	if mesh.VertexCount == 0 {
		return DrawSkipped, nil
	}

	pass.SetPipeline(item.Pipeline)
	pass.SetUniformMat4(UniformViewProj, view.ViewProj())
	pass.SetUniformMat4(UniformModel, item.Model)
	pass.SetUniformVec4(UniformLightDir, lightDir)
	pass.SetVertexBuffer(0, mesh.Vertex)
	drawMesh(pass, mesh, 1)
	return DrawSuccess, nil
}

func drawMesh(pass gpu.RenderPass, mesh *GPUMesh, instances int) {
	if mesh.Indexed() {
		pass.SetIndexBuffer(mesh.Index)
		pass.DrawIndexed(mesh.IndexCount, instances)
		return
	}
	pass.Draw(mesh.VertexCount, instances)
}
