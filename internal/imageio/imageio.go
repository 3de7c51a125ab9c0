// Package imageio loads, validates, and prepares card photographs for
// recognition. It works on encoded bytes at the boundaries so callers
// never hand decoded pixels across package lines.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"

	"github.com/cardlens/cardlens/internal/errx"
)

// SupportedExtensions lists the file extensions accepted for scanning.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupportedPath reports whether the path has a supported image extension.
func IsSupportedPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Constraints bound the images the pipeline accepts.
type Constraints struct {
	MinWidth     int
	MinHeight    int
	MaxDimension int // longest side; larger images are downscaled, not rejected
	MaxBytes     int64
}

// DefaultConstraints returns the limits used when the caller passes none.
// Cards photographed below 100px on a side carry no recognizable text.
func DefaultConstraints() Constraints {
	return Constraints{
		MinWidth:     100,
		MinHeight:    100,
		MaxDimension: 4096,
		MaxBytes:     20 << 20,
	}
}

// Metadata captures lightweight information about a decoded image.
type Metadata struct {
	Format      string
	Width       int
	Height      int
	SizeBytes   int
	AspectRatio float64
}

// Decode decodes image bytes and validates them against the constraints.
func Decode(data []byte, c Constraints) (image.Image, Metadata, error) {
	if len(data) == 0 {
		return nil, Metadata{}, errx.New(errx.KindValidation, "empty image data")
	}
	if c.MaxBytes > 0 && int64(len(data)) > c.MaxBytes {
		return nil, Metadata{}, errx.Newf(errx.KindValidation, "image of %d bytes exceeds limit %d", len(data), c.MaxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, errx.Wrap(errx.KindUnsupportedFormat, err, "decode image")
	}

	b := img.Bounds()
	if b.Dx() < c.MinWidth || b.Dy() < c.MinHeight {
		return nil, Metadata{}, errx.Newf(errx.KindValidation,
			"image %dx%d below minimum %dx%d", b.Dx(), b.Dy(), c.MinWidth, c.MinHeight)
	}

	meta := Metadata{
		Format:      format,
		Width:       b.Dx(),
		Height:      b.Dy(),
		SizeBytes:   len(data),
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}
	return img, meta, nil
}

// PreprocessOptions selects the preparation steps applied before OCR.
type PreprocessOptions struct {
	Grayscale       bool
	EnhanceContrast bool
	Sharpen         bool
	MaxDimension    int
	RotationDegrees float64
}

// Preprocess applies the requested preparation steps and re-encodes the
// result as PNG. Unrequested steps leave the pixels untouched.
func Preprocess(data []byte, opts PreprocessOptions) ([]byte, error) {
	img, _, err := Decode(data, Constraints{MaxBytes: DefaultConstraints().MaxBytes})
	if err != nil {
		return nil, err
	}

	out := Apply(img, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, errx.Wrap(errx.KindProcessing, err, "encode preprocessed image")
	}
	return buf.Bytes(), nil
}

// Apply runs the preparation steps over a decoded image.
func Apply(img image.Image, opts PreprocessOptions) image.Image {
	out := img
	if opts.MaxDimension > 0 {
		b := out.Bounds()
		if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
			if b.Dx() >= b.Dy() {
				out = imaging.Resize(out, opts.MaxDimension, 0, imaging.Lanczos)
			} else {
				out = imaging.Resize(out, 0, opts.MaxDimension, imaging.Lanczos)
			}
		}
	}
	if opts.RotationDegrees != 0 {
		out = imaging.Rotate(out, opts.RotationDegrees, image.White)
	}
	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}
	if opts.EnhanceContrast {
		out = imaging.AdjustContrast(out, 15)
	}
	if opts.Sharpen {
		out = imaging.Sharpen(out, 1.0)
	}
	return out
}

// EncodePNG renders an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG renders an image to JPEG bytes at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
