//go:build !cardlens_gozxing

package barcode

import (
	"context"
	"image"
)

type defaultDecoder struct{}

func newDefaultDecoder() (Decoder, error) { return &defaultDecoder{}, nil }

func (d *defaultDecoder) Decode(_ context.Context, _ image.Image, _ Options) ([]Result, error) {
	return nil, ErrNoBackend
}
