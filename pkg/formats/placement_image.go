package formats

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png" // PNG density maps

	_ "golang.org/x/image/bmp"  // BMP density maps
	_ "golang.org/x/image/tiff" // TIFF density maps (16-bit gray)
)

// imageMagics lists the signatures of the bitmap encodings accepted as placement maps.
var imageMagics = [][]byte{
	[]byte("\x89PNG\r\n\x1a\n"),
	[]byte("BM"),
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
}

func isImageData(data []byte) bool {
	for _, m := range imageMagics {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

// parsePlacementImage decodes a density bitmap into one PixelSample per pixel, row-major.
// Dark pixels are dense: coverage = 1 - luminance. Transparent pixels carry no grass.
// HeightHint is the alpha channel for translucent images and the coverage otherwise.
func parsePlacementImage(data []byte) (*PlacementMap, error) {
	// Reject oversized maps from the header, before the pixels are allocated.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(ErrTruncatedPlacementData, "decoding image header: %v", err)
	}
	if cfg.Width > 0xFFFF || cfg.Height > 0xFFFF {
		return nil, decodeError(ErrPlacementDimensionsTooLarge, "%s %dx%d", format, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(ErrTruncatedPlacementData, "decoding image: %v", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	m := &PlacementMap{
		Encoding: EncodingImage,
		Width:    uint32(w),
		Height:   uint32(h),
		Records:  make([]PlacementRecord, 0, w*h),
	}

	opaque := isOpaque(img)
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+z)
			_, _, _, a := c.RGBA()

			var sample PixelSample
			sample.X = uint16(x)
			sample.Z = uint16(z)
			if a != 0 {
				lum := float32(color.Gray16Model.Convert(unpremultiply(c)).(color.Gray16).Y) / 0xFFFF
				sample.Coverage = 1 - lum
				if opaque {
					sample.HeightHint = sample.Coverage
				} else {
					sample.HeightHint = float32(a) / 0xFFFF
				}
			}
			m.Records = append(m.Records, PlacementRecord{Kind: RecordPixel, Pixel: sample})
		}
	}
	return m, nil
}

// isOpaque reports whether the image declares itself fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return true
}

// unpremultiply returns c with full alpha so luminance ignores transparency.
func unpremultiply(c color.Color) color.Color {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	n.A = 0xFFFF
	return n
}
