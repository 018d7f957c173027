// Package render turns scene grass batches into instanced draw calls through
// a fixed per-frame stage sequence: extract, prepare, queue, render.
package render

import "fmt"

// Stage is one step of the per-frame sequence.
type Stage uint8

// Frame stages in execution order.
const (
	StageExtract Stage = iota // copy scene state into the render world
	StagePrepare              // upload meshes and instance buffers
	StageQueue                // build per-view draw lists
	StageRender               // issue draw calls
)

// Stages lists every stage in the order Frame runs them.
var Stages = [...]Stage{StageExtract, StagePrepare, StageQueue, StageRender}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "extract"
	case StagePrepare:
		return "prepare"
	case StageQueue:
		return "queue"
	case StageRender:
		return "render"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}
