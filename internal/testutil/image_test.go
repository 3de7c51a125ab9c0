package testutil

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCardImage(t *testing.T) {
	img := GenerateCardImage(DefaultCardImageConfig())

	bounds := img.Bounds()
	assert.Equal(t, 640, bounds.Dx())
	assert.Equal(t, 384, bounds.Dy())
}

func TestCardImagePNGDecodes(t *testing.T) {
	data := CardImagePNG()
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
}

func TestGenerateCardImageRotated(t *testing.T) {
	cfg := DefaultCardImageConfig()
	cfg.Rotation = 90
	img := GenerateCardImage(cfg)

	// Width and height swap on a 90 degree rotation.
	assert.Equal(t, 384, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())
}
