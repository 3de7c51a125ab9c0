// Package testutil provides synthetic card images and fake engines for
// tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardImageConfig holds configuration for generating synthetic card
// images.
type CardImageConfig struct {
	Lines      []string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Rotation   float64 // degrees
}

// DefaultCardImageConfig returns a business-card-shaped default.
func DefaultCardImageConfig() CardImageConfig {
	return CardImageConfig{
		Lines: []string{
			"Jane Doe",
			"Engineering Manager",
			"ACME Technologies Inc.",
			"jane.doe@acme.example",
			"Tel: 02-2345-6789",
			"www.acme.example",
		},
		Width:      640,
		Height:     384,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateCardImage renders the configured text lines onto a card-like
// background.
func GenerateCardImage(cfg CardImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: cfg.FontFace,
	}

	lineHeight := cfg.FontFace.Metrics().Height.Ceil() + 6
	startY := (cfg.Height - len(cfg.Lines)*lineHeight) / 2
	for i, line := range cfg.Lines {
		y := startY + (i+1)*lineHeight
		drawer.Dot = fixed.P(24, y)
		drawer.DrawString(line)
	}

	if cfg.Rotation != 0 {
		rotated := imaging.Rotate(img, cfg.Rotation, color.White)
		rgba := image.NewRGBA(rotated.Bounds())
		draw.Draw(rgba, rgba.Bounds(), rotated, rotated.Bounds().Min, draw.Src)
		return rgba
	}
	return img
}

// CardImagePNG renders the default synthetic card and returns it as PNG
// bytes.
func CardImagePNG() []byte {
	return EncodePNG(GenerateCardImage(DefaultCardImageConfig()))
}

// EncodePNG encodes an image as PNG, panicking on failure; encoding an
// in-memory RGBA image cannot fail outside of programmer error.
func EncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
