package terrain

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/birdylook/pkg/math"
)

// Sampler defaults.
const (
	DefaultEarlyExitEpsilon float32 = 1.0
	DefaultSearchRadius     float32 = 100
	DefaultGridCellSize     float32 = 8
)

// HeightSampler returns the ground height at a mesh-local (x, z).
type HeightSampler interface {
	Height(x, z float32) float32
}

// SampleHeight returns the height of the first vertex closer than 1.0 (Manhattan, XZ plane),
// or of the closest vertex seen before that, within a search radius of 100.
// Returns 0 when positions is empty or nothing lies within the radius.
func SampleHeight(positions []math.Vec3, x, z float32) float32 {
	return scanHeight(positions, x, z, DefaultEarlyExitEpsilon, DefaultSearchRadius)
}

// scanHeight is a linear scan tracking the closest vertex so far.
// A candidate closer than eps stops the scan, even if a later vertex would be closer.
func scanHeight(positions []math.Vec3, x, z, eps, radius float32) float32 {
	var height float32
	minDistance := radius
	for _, p := range positions {
		d := math32.Abs(p.X-x) + math32.Abs(p.Z-z)
		if d < minDistance {
			height = p.Y
			if d < eps {
				break
			}
			minDistance = d
		}
	}
	return height
}

// ScanSampler samples by linear scan with early exit, O(V) per query.
type ScanSampler struct {
	Positions    []math.Vec3
	Epsilon      float32
	SearchRadius float32
}

// NewScanSampler creates a scan sampler with the default epsilon and radius.
func NewScanSampler(positions []math.Vec3) *ScanSampler {
	return &ScanSampler{
		Positions:    positions,
		Epsilon:      DefaultEarlyExitEpsilon,
		SearchRadius: DefaultSearchRadius,
	}
}

// Height implements HeightSampler.
func (s *ScanSampler) Height(x, z float32) float32 {
	return scanHeight(s.Positions, x, z, s.Epsilon, s.SearchRadius)
}

// GridSampler is an exact Manhattan nearest-neighbour lookup over a uniform XZ grid.
// Ties resolve to the lowest vertex index, matching scan order.
type GridSampler struct {
	positions    []math.Vec3
	cellSize     float32
	searchRadius float32
	cells        map[[2]int32][]int32
}

// NewGridSampler buckets positions into square cells of cellSize world units.
func NewGridSampler(positions []math.Vec3, cellSize, searchRadius float32) *GridSampler {
	if cellSize <= 0 {
		cellSize = DefaultGridCellSize
	}
	g := &GridSampler{
		positions:    positions,
		cellSize:     cellSize,
		searchRadius: searchRadius,
		cells:        make(map[[2]int32][]int32),
	}
	for i, p := range positions {
		key := g.cell(p.X, p.Z)
		g.cells[key] = append(g.cells[key], int32(i))
	}
	return g
}

func (g *GridSampler) cell(x, z float32) [2]int32 {
	return [2]int32{int32(math32.Floor(x / g.cellSize)), int32(math32.Floor(z / g.cellSize))}
}

// Height implements HeightSampler.
func (g *GridSampler) Height(x, z float32) float32 {
	if len(g.positions) == 0 {
		return 0
	}

	center := g.cell(x, z)
	best := int32(-1)
	bestDist := g.searchRadius
	maxRing := int32(math32.Ceil(g.searchRadius/g.cellSize)) + 1

	for r := int32(0); r <= maxRing; r++ {
		// Every vertex in ring r is at least (r-1) cells away along one axis.
		if r > 1 && float32(r-1)*g.cellSize > bestDist {
			break
		}
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs32(dx), abs32(dz)) != r {
					continue
				}
				for _, idx := range g.cells[[2]int32{center[0] + dx, center[1] + dz}] {
					p := g.positions[idx]
					d := math32.Abs(p.X-x) + math32.Abs(p.Z-z)
					if d < bestDist || (d == bestDist && best >= 0 && idx < best) {
						best, bestDist = idx, d
					}
				}
			}
		}
	}

	if best < 0 {
		return 0
	}
	return g.positions[best].Y
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
