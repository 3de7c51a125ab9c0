//go:build cardlens_gozxing

package barcode

import (
	"context"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/common"
	"github.com/makiuchi-d/gozxing/multi"
)

// newDefaultDecoder returns the gozxing-backed implementation when the build
// tag is enabled.
func newDefaultDecoder() (Decoder, error) { return &gozxingDecoder{}, nil }

type gozxingDecoder struct{}

func (d *gozxingDecoder) Decode(_ context.Context, img image.Image, opts Options) ([]Result, error) {
	hints := make(map[gozxing.DecodeHintType]interface{})
	if len(opts.Formats) > 0 {
		var formats []gozxing.BarcodeFormat
		for _, f := range opts.Formats {
			if bf, ok := mapFormatToZXing(f); ok {
				formats = append(formats, bf)
			}
		}
		if len(formats) > 0 {
			hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = formats
		}
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap := gozxing.NewBinaryBitmap(common.NewHybridBinarizer(source))

	var results []*gozxing.Result
	var err error
	if opts.Multi {
		reader := multi.NewGenericMultipleBarcodeReader(multi.NewMultiFormatReader())
		results, err = reader.DecodeMultipleWithoutHints(bitmap)
		if err != nil && len(hints) > 0 {
			results, err = reader.DecodeMultiple(bitmap, hints)
		}
	} else {
		reader := multi.NewMultiFormatReader()
		var r *gozxing.Result
		r, err = reader.DecodeWithoutHints(bitmap)
		if err != nil && len(hints) > 0 {
			r, err = reader.Decode(bitmap, hints)
		}
		if err == nil && r != nil {
			results = []*gozxing.Result{r}
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			Type:       mapFormatFromZXing(r.GetBarcodeFormat()),
			Value:      r.GetText(),
			BBox:       rectFromPoints(r.GetResultPoints()),
			Confidence: -1, // gozxing does not provide calibrated confidence
		})
	}
	return out, nil
}

func mapFormatToZXing(f Format) (gozxing.BarcodeFormat, bool) {
	switch f {
	case FormatQR:
		return gozxing.BarcodeFormat_QR_CODE, true
	case FormatDataMatrix:
		return gozxing.BarcodeFormat_DATA_MATRIX, true
	case FormatAztec:
		return gozxing.BarcodeFormat_AZTEC, true
	default:
		return 0, false
	}
}

func mapFormatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return FormatAztec
	default:
		return FormatUnknown
	}
}

func rectFromPoints(pts []gozxing.ResultPoint) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := int(pts[0].GetX()), int(pts[0].GetY())
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		x, y := int(p.GetX()), int(p.GetY())
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
