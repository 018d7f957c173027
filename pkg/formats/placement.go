package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// Placement map errors. Every decode failure wraps ErrDecode.
var (
	ErrDecode                      = errors.New("placement map decode error")
	ErrUnknownPlacementFormat      = errors.New("unknown placement map format")
	ErrUnsupportedPlacementVersion = errors.New("unsupported placement map version")
	ErrTruncatedPlacementData      = errors.New("truncated placement data")
	ErrMalformedPlacementRecord    = errors.New("malformed placement record")
	ErrPlacementDimensionsTooLarge = errors.New("placement image dimensions too large")
)

// placementMagic starts the binary placement encoding.
const placementMagic = "GRSP"

// PlacementBinaryVersion is the only binary version written and accepted.
const PlacementBinaryVersion uint16 = 1

// PlacementGridResolution is the number of map-grid units spanning the ground along each axis.
const PlacementGridResolution = 512

// decodeError wraps sentinel in ErrDecode with extra context.
func decodeError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrDecode, sentinel, fmt.Sprintf(format, args...))
}

// PlacementEncoding identifies how a placement map was serialized.
type PlacementEncoding uint8

// Placement encodings.
const (
	EncodingBinary PlacementEncoding = iota
	EncodingText
	EncodingImage
)

// String returns a human-readable encoding name.
func (e PlacementEncoding) String() string {
	switch e {
	case EncodingBinary:
		return "binary"
	case EncodingText:
		return "text"
	case EncodingImage:
		return "image"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// RecordKind distinguishes rectangle records from bitmap samples.
type RecordKind uint8

// Record kinds.
const (
	RecordRect RecordKind = iota
	RecordPixel
)

// GrassRect is a rectangular region in map-grid units. ID 0 marks an inactive region.
type GrassRect struct {
	ID uint16
	X  uint16
	Z  uint16
	W  uint16
	H  uint16
}

// RectFromTuple converts an [id, x, z, w, h] tuple.
func RectFromTuple(v [5]uint16) GrassRect {
	return GrassRect{ID: v[0], X: v[1], Z: v[2], W: v[3], H: v[4]}
}

// Tuple returns the rectangle as an [id, x, z, w, h] tuple.
func (r GrassRect) Tuple() [5]uint16 {
	return [5]uint16{r.ID, r.X, r.Z, r.W, r.H}
}

// Active reports whether grass grows in this region.
func (r GrassRect) Active() bool {
	return r.ID != 0
}

// Area returns w*h in grid cells.
func (r GrassRect) Area() int {
	return int(r.W) * int(r.H)
}

// PixelSample is one pixel of a density bitmap.
type PixelSample struct {
	X          uint16
	Z          uint16
	Coverage   float32 // 0 = bare, 1 = fully covered
	HeightHint float32 // 0..1, drives blade scale
}

// PlacementRecord is either a rectangle or a pixel sample, selected by Kind.
type PlacementRecord struct {
	Kind  RecordKind
	Rect  GrassRect
	Pixel PixelSample
}

// Active reports whether the record should produce vegetation.
// Pixel samples are active when their coverage reaches threshold.
func (r PlacementRecord) Active(threshold float32) bool {
	switch r.Kind {
	case RecordRect:
		return r.Rect.Active()
	case RecordPixel:
		return r.Pixel.Coverage > 0 && r.Pixel.Coverage >= threshold
	default:
		return false
	}
}

// PlacementMap is a decoded placement map.
type PlacementMap struct {
	Encoding PlacementEncoding
	// Width and Height are the bitmap size for image maps, zero otherwise.
	Width   uint32
	Height  uint32
	Records []PlacementRecord
}

// CountActive returns the number of records that would produce vegetation.
func (m *PlacementMap) CountActive(threshold float32) int {
	n := 0
	for _, r := range m.Records {
		if r.Active(threshold) {
			n++
		}
	}
	return n
}

// Rects returns all rectangle records in order.
func (m *PlacementMap) Rects() []GrassRect {
	var rects []GrassRect
	for _, r := range m.Records {
		if r.Kind == RecordRect {
			rects = append(rects, r.Rect)
		}
	}
	return rects
}

// ParsePlacementMap decodes a placement map, detecting the encoding from content.
// On failure the returned map is nil and the error wraps ErrDecode.
func ParsePlacementMap(data []byte) (*PlacementMap, error) {
	switch {
	case bytes.HasPrefix(data, []byte(placementMagic)):
		return parsePlacementBinary(data)
	case isImageData(data):
		return parsePlacementImage(data)
	case len(bytes.TrimSpace(data)) > 0 && utf8.Valid(data):
		return parsePlacementText(data)
	default:
		return nil, decodeError(ErrUnknownPlacementFormat, "%d bytes", len(data))
	}
}

// ParsePlacementFile reads and decodes a placement map from disk.
func ParsePlacementFile(path string) (*PlacementMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading placement map: %w", err)
	}
	return ParsePlacementMap(data)
}

// parsePlacementBinary parses the GRSP encoding:
// magic[4], version u16, count u32, count * [id, x, z, w, h] u16, little-endian.
func parsePlacementBinary(data []byte) (*PlacementMap, error) {
	if len(data) < 10 {
		return nil, decodeError(ErrTruncatedPlacementData, "header")
	}

	r := bytes.NewReader(data[4:])

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, decodeError(ErrTruncatedPlacementData, "reading version")
	}
	if version != PlacementBinaryVersion {
		return nil, decodeError(ErrUnsupportedPlacementVersion, "%d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, decodeError(ErrTruncatedPlacementData, "reading record count")
	}
	if int64(r.Len()) < int64(count)*10 {
		return nil, decodeError(ErrTruncatedPlacementData, "expected %d records, have %d bytes", count, r.Len())
	}

	tuples := make([][5]uint16, count)
	if err := binary.Read(r, binary.LittleEndian, tuples); err != nil {
		return nil, decodeError(ErrTruncatedPlacementData, "reading records")
	}

	m := &PlacementMap{
		Encoding: EncodingBinary,
		Records:  make([]PlacementRecord, count),
	}
	for i, t := range tuples {
		m.Records[i] = PlacementRecord{Kind: RecordRect, Rect: RectFromTuple(t)}
	}
	return m, nil
}

// EncodePlacementBinary serializes rectangles in the GRSP encoding.
func EncodePlacementBinary(rects []GrassRect) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(placementMagic)
	binary.Write(buf, binary.LittleEndian, PlacementBinaryVersion)
	binary.Write(buf, binary.LittleEndian, uint32(len(rects)))
	for _, r := range rects {
		binary.Write(buf, binary.LittleEndian, r.Tuple())
	}
	return buf.Bytes()
}
