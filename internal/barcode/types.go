package barcode

import (
	"context"
	"errors"
	"image"
)

// ErrNoBackend is returned by builds that link no decoder backend.
var ErrNoBackend = errors.New("barcode: no decoder backend linked; build with -tags=cardlens_gozxing")

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatAztec
)

// String returns the symbology name.
func (f Format) String() string {
	switch f {
	case FormatQR:
		return "qr"
	case FormatDataMatrix:
		return "datamatrix"
	case FormatAztec:
		return "aztec"
	default:
		return "unknown"
	}
}

// Options controls backend decoding behavior.
type Options struct {
	// Formats constrains the set of symbologies to search.
	// Empty means all supported formats.
	Formats []Format

	// TryHarder enables more exhaustive search (slower but more robust).
	TryHarder bool

	// Multi enables multi-symbol detection in a single image.
	Multi bool
}

// Result represents a decoded barcode.
type Result struct {
	Type       Format
	Value      string
	BBox       image.Rectangle // Bounding box if derivable from result points
	Confidence float64         // -1 if not provided by backend
}

// Decoder is a pluggable barcode decoder implementation.
type Decoder interface {
	Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error)
}

// NewDecoder returns the default decoder implementation.
// The default build has no backend; enable one via build tags
// (e.g. -tags=cardlens_gozxing).
func NewDecoder() (Decoder, error) { return newDefaultDecoder() }
