package imageio

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/errx"
)

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	data, err := EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestIsSupportedPath(t *testing.T) {
	assert.True(t, IsSupportedPath("card.jpg"))
	assert.True(t, IsSupportedPath("dir/CARD.PNG"))
	assert.True(t, IsSupportedPath("scan.bmp"))
	assert.False(t, IsSupportedPath("card.gif"))
	assert.False(t, IsSupportedPath("card"))
}

func TestDecodeValid(t *testing.T) {
	data := testImageBytes(t, 320, 200)

	img, meta, err := Decode(data, DefaultConstraints())
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 320, meta.Width)
	assert.Equal(t, 200, meta.Height)
	assert.InDelta(t, 1.6, meta.AspectRatio, 1e-9)
}

func TestDecodeRejections(t *testing.T) {
	_, _, err := Decode(nil, DefaultConstraints())
	assert.True(t, errx.IsKind(err, errx.KindValidation))

	_, _, err = Decode([]byte("not an image"), DefaultConstraints())
	assert.True(t, errx.IsKind(err, errx.KindUnsupportedFormat))

	tiny := testImageBytes(t, 20, 20)
	_, _, err = Decode(tiny, DefaultConstraints())
	assert.True(t, errx.IsKind(err, errx.KindValidation))

	data := testImageBytes(t, 320, 200)
	_, _, err = Decode(data, Constraints{MaxBytes: 10})
	assert.True(t, errx.IsKind(err, errx.KindValidation))
}

func TestPreprocessResizeCap(t *testing.T) {
	data := testImageBytes(t, 800, 400)

	out, err := Preprocess(data, PreprocessOptions{MaxDimension: 200})
	require.NoError(t, err)

	img, meta, err := Decode(out, Constraints{})
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, meta.Height, "aspect ratio preserved")
}

func TestPreprocessGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{R: 200, G: 30, B: 30, A: 255}}, image.Point{}, draw.Src)
	data, err := EncodePNG(img)
	require.NoError(t, err)

	out, err := Preprocess(data, PreprocessOptions{Grayscale: true})
	require.NoError(t, err)

	decoded, _, err := Decode(out, Constraints{})
	require.NoError(t, err)
	r, g, b, _ := decoded.At(60, 60).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestEncodeJPEGQualityFallback(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	data, err := EncodeJPEG(img, -5)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
