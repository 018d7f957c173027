package lighting

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-5
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name    string
		sun     Sun
		x, y, z float32
	}{
		{"zenith", Sun{Azimuth: 0, Elevation: 90}, 0, 1, 0},
		{"horizon north", Sun{Azimuth: 0, Elevation: 0}, 0, 0, 1},
		{"horizon east", Sun{Azimuth: 90, Elevation: 0}, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.sun.Direction()
			if !near(d.X, tt.x) || !near(d.Y, tt.y) || !near(d.Z, tt.z) {
				t.Errorf("got (%f, %f, %f), want (%f, %f, %f)", d.X, d.Y, d.Z, tt.x, tt.y, tt.z)
			}
			if !near(d.Length(), 1) {
				t.Errorf("direction not normalized: %f", d.Length())
			}
		})
	}
}

func TestSunLightDir(t *testing.T) {
	l := Sun{Azimuth: 30, Elevation: 60}.LightDir()
	if l[1] >= 0 {
		t.Errorf("light from above should travel down, got y=%f", l[1])
	}
	if l[3] != 0 {
		t.Errorf("expected w=0, got %f", l[3])
	}
}
