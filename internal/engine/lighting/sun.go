// Package lighting computes the directional light used to shade the ground.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/birdylook/pkg/math"
)

// Sun is a directional light placed in the sky by angles in degrees.
// Azimuth rotates around +Y starting at +Z; elevation is measured up from the horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// Direction returns the unit vector pointing toward the sun.
func (s Sun) Direction() math.Vec3 {
	az := s.Azimuth * math32.Pi / 180
	el := s.Elevation * math32.Pi / 180
	return math.Vec3{
		X: math32.Cos(el) * math32.Sin(az),
		Y: math32.Sin(el),
		Z: math32.Cos(el) * math32.Cos(az),
	}
}

// LightDir returns the direction the light travels, with w = 0 for shader upload.
func (s Sun) LightDir() math.Vec4 {
	d := s.Direction()
	return math.Vec4{-d.X, -d.Y, -d.Z, 0}
}
