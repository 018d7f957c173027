package grass

// Base blade geometry: a thin tetrahedron two units tall, drawn as a triangle list.
var (
	BladePositions = [][3]float32{
		{0, 0, 0},
		{0.5, 0, 0},
		{0, 0, 0.5},
		{0.25, 2, 0.25},
	}
	BladeIndices = []uint32{1, 0, 3, 2, 1, 3, 0, 2, 3}
)
