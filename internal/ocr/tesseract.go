//go:build cardlens_tesseract

package ocr

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/cardlens/cardlens/internal/imageio"
)

// tesseractLangs maps BCP-47-ish tags to tesseract traineddata names.
var tesseractLangs = map[string]string{
	"en":      "eng",
	"de":      "deu",
	"fr":      "fra",
	"es":      "spa",
	"ja":      "jpn",
	"ko":      "kor",
	"zh":      "chi_sim",
	"zh-hans": "chi_sim",
	"zh-hant": "chi_tra",
}

// TesseractEngine recognizes text with a locally installed tesseract
// via gosseract. Each Recognize call uses its own client; gosseract
// clients are not safe for concurrent reuse.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates a tesseract-backed engine preloaded with
// the given language preferences.
func NewTesseractEngine(languages []string) *TesseractEngine {
	return &TesseractEngine{languages: languages}
}

// PlatformEngines returns the engines linked into this build.
func PlatformEngines() []Engine {
	return []Engine{NewTesseractEngine(nil)}
}

func (t *TesseractEngine) Descriptor() EngineDescriptor {
	return EngineDescriptor{
		ID:           "tesseract",
		Name:         "Tesseract",
		Version:      gosseract.Version(),
		Available:    true,
		Languages:    []string{"en", "de", "fr", "es", "ja", "ko", "zh-hans", "zh-hant"},
		Platform:     runtime.GOOS,
		Capabilities: []string{"blocks", "languages"},
	}
}

// Recognize implements Engine.
func (t *TesseractEngine) Recognize(ctx context.Context, imageBytes []byte, opts Options) (RawRecognition, error) {
	if err := ctx.Err(); err != nil {
		return RawRecognition{}, err
	}
	start := time.Now()

	_, meta, err := imageio.Decode(imageBytes, imageio.Constraints{MaxBytes: imageio.DefaultConstraints().MaxBytes})
	if err != nil {
		return RawRecognition{}, err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	langs := opts.Languages
	if len(langs) == 0 {
		langs = t.languages
	}
	if mapped := mapTesseractLangs(langs); len(mapped) > 0 {
		if err := client.SetLanguage(mapped...); err != nil {
			return RawRecognition{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return RawRecognition{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return RawRecognition{}, fmt.Errorf("recognize: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return RawRecognition{}, err
	}

	var blocks []RawBlock
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		blocks = make([]RawBlock, 0, len(boxes))
		for _, bb := range boxes {
			blocks = append(blocks, RawBlock{
				Text:       bb.Word,
				Confidence: clampFloat(bb.Confidence/100, 0, 1),
				Box: NewBoundingBox(
					float64(bb.Box.Min.X),
					float64(bb.Box.Min.Y),
					float64(bb.Box.Dx()),
					float64(bb.Box.Dy()),
				),
			})
		}
	}

	return RawRecognition{
		Text:        text,
		Blocks:      blocks,
		ImageWidth:  meta.Width,
		ImageHeight: meta.Height,
		Duration:    time.Since(start),
		Engine:      "tesseract " + gosseract.Version(),
	}, nil
}

// Preprocess implements Engine using the shared image pipeline.
func (t *TesseractEngine) Preprocess(ctx context.Context, imageBytes []byte, opts PreprocessOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imageio.Preprocess(imageBytes, imageio.PreprocessOptions{
		Grayscale:       opts.Grayscale,
		EnhanceContrast: opts.EnhanceContrast,
		Sharpen:         opts.Sharpen,
		MaxDimension:    opts.MaxDimension,
		RotationDegrees: opts.RotationDegrees,
	})
}

func mapTesseractLangs(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if mapped, ok := tesseractLangs[strings.ToLower(tag)]; ok {
			out = append(out, mapped)
			continue
		}
		// Pass unknown tags through; tesseract validates them itself.
		out = append(out, tag)
	}
	return out
}
