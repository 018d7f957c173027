package grass

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/birdylook/internal/engine/terrain"
	"github.com/Faultbox/birdylook/internal/logger"
	"github.com/Faultbox/birdylook/pkg/formats"
	"github.com/Faultbox/birdylook/pkg/math"
)

// SamplerKind selects the ground height lookup.
type SamplerKind string

// Sampler kinds.
const (
	SamplerScan SamplerKind = "scan" // linear scan with early exit
	SamplerGrid SamplerKind = "grid" // exact nearest neighbour over a uniform grid
)

// pcgStream is the fixed PCG stream selector; only the seed varies.
const pcgStream = 0x9e3779b97f4a7c15

// Options configures a Generator.
type Options struct {
	// Seed fixes the random sequence. Zero picks a random seed per Generate call.
	Seed           uint64
	GridResolution int
	// BladeArea is the grid area per blade: a rectangle yields floor(w*h/BladeArea) blades.
	BladeArea         int
	Sampler           SamplerKind
	EarlyExitEpsilon  float32
	SearchRadius      float32
	PerBladeHeight    bool
	// CoverageThreshold is the minimum pixel coverage; zero accepts any nonzero coverage.
	CoverageThreshold float32
	MinScale          float32
	MaxScale          float32
	Color             math.Vec4
	CapacityHint      int
}

// DefaultOptions returns the stock placement settings.
func DefaultOptions() Options {
	return Options{
		GridResolution:    formats.PlacementGridResolution,
		BladeArea:         4,
		Sampler:           SamplerScan,
		EarlyExitEpsilon:  terrain.DefaultEarlyExitEpsilon,
		SearchRadius:      terrain.DefaultSearchRadius,
		CoverageThreshold: 0.05,
		MinScale:          0.2,
		MaxScale:          0.7,
		Color:             DefaultColor,
		CapacityHint:      60000,
	}
}

// Generator expands placement records into blade instances.
type Generator struct {
	opts Options
	log  *zap.Logger
}

// NewGenerator creates a generator. Zero-valued numeric options fall back to
// defaults, except Seed and CoverageThreshold, where zero is meaningful.
func NewGenerator(opts Options) *Generator {
	def := DefaultOptions()
	if opts.GridResolution <= 0 {
		opts.GridResolution = def.GridResolution
	}
	if opts.BladeArea <= 0 {
		opts.BladeArea = def.BladeArea
	}
	if opts.Sampler == "" {
		opts.Sampler = def.Sampler
	}
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = def.SearchRadius
	}
	if opts.EarlyExitEpsilon <= 0 {
		opts.EarlyExitEpsilon = def.EarlyExitEpsilon
	}
	if opts.MaxScale <= 0 {
		opts.MinScale, opts.MaxScale = def.MinScale, def.MaxScale
	}
	if opts.Color == (math.Vec4{}) {
		opts.Color = def.Color
	}
	return &Generator{opts: opts, log: logger.Named("grass")}
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// GridScale returns the world units per map-grid unit for a ground bounding box.
func (g *Generator) GridScale(bounds math.AABB) (scaleX, scaleZ float32) {
	res := float32(g.opts.GridResolution)
	return bounds.Center.X * 2 / res, bounds.Center.Z * 2 / res
}

// Sampler builds the configured height sampler over the surface positions.
func (g *Generator) Sampler(surface *terrain.GroundSurface) terrain.HeightSampler {
	var positions []math.Vec3
	if surface != nil {
		positions = surface.Positions
	}
	if g.opts.Sampler == SamplerGrid {
		return terrain.NewGridSampler(positions, terrain.DefaultGridCellSize, g.opts.SearchRadius)
	}
	return &terrain.ScanSampler{
		Positions:    positions,
		Epsilon:      g.opts.EarlyExitEpsilon,
		SearchRadius: g.opts.SearchRadius,
	}
}

// Generate emits blades for every active record of m over surface.
// Heights are sampled in mesh-local space; positions are offset by the ground translation.
func (g *Generator) Generate(m *formats.PlacementMap, surface *terrain.GroundSurface, scaleX, scaleZ float32) []BladeInstance {
	if m == nil {
		return nil
	}

	seed := g.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, pcgStream))

	var origin math.Vec3
	if surface != nil {
		origin = surface.Transform.Translation
	}
	sampler := g.Sampler(surface)

	out := make([]BladeInstance, 0, g.capacity(m))
	for _, rec := range m.Records {
		if !rec.Active(g.opts.CoverageThreshold) {
			continue
		}
		switch rec.Kind {
		case formats.RecordRect:
			out = g.appendRect(out, rng, sampler, origin, rec.Rect, scaleX, scaleZ)
		case formats.RecordPixel:
			out = g.appendPixel(out, rng, sampler, origin, rec.Pixel, scaleX, scaleZ)
		}
	}

	g.log.Info("loaded grass blades",
		zap.Int("count", len(out)),
		zap.Int("records", len(m.Records)),
		zap.Uint64("seed", seed),
		zap.String("sampler", string(g.opts.Sampler)))
	return out
}

func (g *Generator) capacity(m *formats.PlacementMap) int {
	if m.Encoding == formats.EncodingImage {
		return len(m.Records)
	}
	return g.opts.CapacityHint
}

// appendRect emits floor(w*h/BladeArea) blades jittered uniformly inside the rectangle.
func (g *Generator) appendRect(out []BladeInstance, rng *rand.Rand, sampler terrain.HeightSampler,
	origin math.Vec3, r formats.GrassRect, scaleX, scaleZ float32) []BladeInstance {

	w, h := float32(r.W), float32(r.H)
	posX := float32(r.X) * scaleX
	posZ := float32(r.Z) * scaleZ
	centerX := posX + w/2*scaleX
	centerZ := posZ + h/2*scaleZ
	anchor := sampler.Height(centerX, centerZ)

	x0, z0, x1, z1 := WorldRect(r, origin, scaleX, scaleZ)
	count := r.Area() / g.opts.BladeArea
	for range count {
		u, s, v := rng.Float32(), rng.Float32(), rng.Float32()
		localX := posX + (u*w)*scaleX
		localZ := posZ + (v*h)*scaleZ

		y := anchor
		if g.opts.PerBladeHeight {
			y = sampler.Height(localX, localZ)
		}

		x := below(x0+(u*w)*scaleX, x0, x1)
		z := below(z0+(v*h)*scaleZ, z0, z1)
		blade := NewBladeInstance(x, y+origin.Y, z)
		blade.Color = g.opts.Color
		out = append(out, blade.WithScale(g.scale(s)))
	}
	return out
}

// WorldRect returns the world-space extent [x0, x1) x [z0, z1) of a rectangle record
// on a ground translated by origin.
func WorldRect(r formats.GrassRect, origin math.Vec3, scaleX, scaleZ float32) (x0, z0, x1, z1 float32) {
	x0 = float32(float32(r.X)*scaleX) + origin.X
	z0 = float32(float32(r.Z)*scaleZ) + origin.Z
	x1 = x0 + float32(float32(r.W)*scaleX)
	z1 = z0 + float32(float32(r.H)*scaleZ)
	return x0, z0, x1, z1
}

// below keeps v under the exclusive bound hi; float32 rounding can land a jittered
// coordinate exactly on it when the ground is far from the origin.
func below(v, lo, hi float32) float32 {
	if v >= hi && hi > lo {
		return math32.Nextafter(hi, lo)
	}
	return v
}

// appendPixel emits one blade inside a 1x1 grid cell, sized by the height hint and tinted by coverage.
func (g *Generator) appendPixel(out []BladeInstance, rng *rand.Rand, sampler terrain.HeightSampler,
	origin math.Vec3, p formats.PixelSample, scaleX, scaleZ float32) []BladeInstance {

	posX := float32(p.X) * scaleX
	posZ := float32(p.Z) * scaleZ
	u, v := rng.Float32(), rng.Float32()
	localX := posX + u*scaleX
	localZ := posZ + v*scaleZ

	var y float32
	if g.opts.PerBladeHeight {
		y = sampler.Height(localX, localZ)
	} else {
		y = sampler.Height(posX+scaleX/2, posZ+scaleZ/2)
	}

	blade := NewBladeInstance(localX+origin.X, y+origin.Y, localZ+origin.Z)
	blade.Color = Tint(g.opts.Color, p.Coverage)
	return append(out, blade.WithScale(g.scale(clamp01(p.HeightHint))))
}

// scale remaps t in [0,1] to [MinScale, MaxScale].
func (g *Generator) scale(t float32) float32 {
	return g.opts.MinScale + t*(g.opts.MaxScale-g.opts.MinScale)
}
