// Package formats provides decoders for grass placement map assets.
//
// A placement map describes where vegetation may grow on a ground surface,
// either as rectangle records in map-grid units (binary GRSP or a text tuple
// list) or as a density bitmap with one sample per pixel.
package formats
