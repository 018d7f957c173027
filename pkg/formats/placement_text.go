package formats

import (
	"bytes"
	"errors"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	// lineComment matches // comments to end of line.
	lineComment = regexp.MustCompile(`//[^\n]*`)
	// trailingComma matches a comma directly before a closing bracket.
	trailingComma = regexp.MustCompile(`,(\s*[\])])`)
	// typeWrapper matches an optional type name followed by an opening parenthesis.
	typeWrapper = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*\(`)
)

// parsePlacementText parses a list of [id, x, z, w, h] tuples.
//
// Accepted forms:
//
//	GrassDataAsset([[1, 0, 0, 4, 4], [0, 8, 8, 2, 2],])  // tuple-struct asset
//	([[1, 0, 0, 4, 4]])
//	[[1, 0, 0, 4, 4]]                                     // JSON / YAML flow
//	- [1, 0, 0, 4, 4]                                     // YAML block
func parsePlacementText(data []byte) (*PlacementMap, error) {
	src := lineComment.ReplaceAll(data, nil)
	src = bytes.TrimSpace(src)

	if loc := typeWrapper.FindIndex(src); loc != nil {
		src = src[loc[1]-1:]
	}
	if len(src) >= 2 && src[0] == '(' && src[len(src)-1] == ')' {
		src = bytes.TrimSpace(src[1 : len(src)-1])
	}
	src = trailingComma.ReplaceAll(src, []byte("$1"))

	var raw [][]int64
	dec := yaml.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, decodeError(ErrMalformedPlacementRecord, "%v", err)
	}
	// Only a single document is a placement map.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, decodeError(ErrMalformedPlacementRecord, "unexpected content after the record list")
		}
		return nil, decodeError(ErrMalformedPlacementRecord, "%v", err)
	}

	m := &PlacementMap{
		Encoding: EncodingText,
		Records:  make([]PlacementRecord, 0, len(raw)),
	}
	for i, rec := range raw {
		if len(rec) != 5 {
			return nil, decodeError(ErrMalformedPlacementRecord, "record %d has %d fields, want 5", i, len(rec))
		}
		var t [5]uint16
		for j, v := range rec {
			if v < 0 || v > 0xFFFF {
				return nil, decodeError(ErrMalformedPlacementRecord, "record %d field %d out of range: %d", i, j, v)
			}
			t[j] = uint16(v)
		}
		m.Records = append(m.Records, PlacementRecord{Kind: RecordRect, Rect: RectFromTuple(t)})
	}
	return m, nil
}
