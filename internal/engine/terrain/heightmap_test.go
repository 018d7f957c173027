package terrain

import (
	"testing"

	"github.com/Faultbox/birdylook/pkg/math"
)

func TestSampleHeight_EarlyExit(t *testing.T) {
	// The first vertex is within 1.0 and wins even though the second is
	// closer in Euclidean terms.
	positions := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 5, Z: 1}}
	if h := SampleHeight(positions, 0.5, 0.5); h != 0 {
		t.Errorf("expected height 0, got %v", h)
	}
}

func TestSampleHeight_StopsAtFirstClose(t *testing.T) {
	positions := []math.Vec3{
		{X: 10, Y: 1, Z: 10},
		{X: 0.8, Y: 2, Z: 0}, // distance 0.8, stops here
		{X: 0, Y: 3, Z: 0},   // exact match never reached
	}
	if h := SampleHeight(positions, 0, 0); h != 2 {
		t.Errorf("expected height 2, got %v", h)
	}
}

func TestSampleHeight_ClosestWithoutEarlyExit(t *testing.T) {
	positions := []math.Vec3{
		{X: 10, Y: 1, Z: 0},
		{X: 3, Y: 7, Z: 0},
		{X: 6, Y: 4, Z: 0},
	}
	if h := SampleHeight(positions, 0, 0); h != 7 {
		t.Errorf("expected height 7, got %v", h)
	}
}

func TestSampleHeight_Empty(t *testing.T) {
	if h := SampleHeight(nil, 1, 1); h != 0 {
		t.Errorf("expected 0 for nil positions, got %v", h)
	}
	if h := SampleHeight([]math.Vec3{}, 1, 1); h != 0 {
		t.Errorf("expected 0 for empty positions, got %v", h)
	}
}

func TestSampleHeight_OutsideRadius(t *testing.T) {
	positions := []math.Vec3{{X: 500, Y: 9, Z: 500}}
	if h := SampleHeight(positions, 0, 0); h != 0 {
		t.Errorf("expected 0 beyond search radius, got %v", h)
	}
}

func TestScanSampler_Custom(t *testing.T) {
	positions := []math.Vec3{{X: 0.8, Y: 2, Z: 0}, {X: 0, Y: 3, Z: 0}}
	s := NewScanSampler(positions)
	s.Epsilon = 0.5
	if h := s.Height(0, 0); h != 3 {
		t.Errorf("expected 3 with tighter epsilon, got %v", h)
	}

	s.SearchRadius = 0.1
	s.Positions = []math.Vec3{{X: 0.8, Y: 2, Z: 0}}
	if h := s.Height(0, 0); h != 0 {
		t.Errorf("expected 0 with small radius, got %v", h)
	}
}

func TestGridSampler_Nearest(t *testing.T) {
	positions := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 5, Z: 1}}
	g := NewGridSampler(positions, 1, DefaultSearchRadius)
	// (0.5,0.5) is at Manhattan 1.0 from the first vertex and 2.0 from the second.
	if h := g.Height(0.5, 0.5); h != 0 {
		t.Errorf("expected 0, got %v", h)
	}
	if h := g.Height(1.9, 1); h != 5 {
		t.Errorf("expected 5, got %v", h)
	}
}

func TestGridSampler_MatchesBruteForce(t *testing.T) {
	mesh := BuildGroundMesh(GroundParams{Size: 64, Segments: 16, HillHeight: 4})
	positions := mesh.Positions()
	g := NewGridSampler(positions, 3, DefaultSearchRadius)

	for _, q := range [][2]float32{{0, 0}, {13.3, 7.1}, {31.9, 60.2}, {64, 64}, {-5, 20}} {
		// exact nearest by full scan with no early exit
		best := DefaultSearchRadius
		var want float32
		for _, p := range positions {
			d := p.ManhattanXZ(math.Vec3{X: q[0], Z: q[1]})
			if d < best {
				best, want = d, p.Y
			}
		}
		if got := g.Height(q[0], q[1]); got != want {
			t.Errorf("query %v: expected %v, got %v", q, want, got)
		}
	}
}

func TestGridSampler_Empty(t *testing.T) {
	g := NewGridSampler(nil, 0, DefaultSearchRadius)
	if h := g.Height(0, 0); h != 0 {
		t.Errorf("expected 0, got %v", h)
	}
}
