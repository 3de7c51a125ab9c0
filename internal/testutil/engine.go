package testutil

import (
	"context"
	"sync/atomic"

	"github.com/cardlens/cardlens/internal/ocr"
)

// FakeEngine is a configurable recognition engine for tests. It returns
// Raw on every call, or Err when set, and counts invocations.
type FakeEngine struct {
	ID    string
	Raw   ocr.RawRecognition
	Err   error
	Calls atomic.Int32
}

// NewFakeEngine returns an engine that recognizes a plausible business
// card.
func NewFakeEngine(id string) *FakeEngine {
	return &FakeEngine{
		ID: id,
		Raw: ocr.RawRecognition{
			Blocks: []ocr.RawBlock{
				{Text: "Jane Doe", Confidence: 0.95, Box: ocr.NewBoundingBox(24, 60, 200, 20)},
				{Text: "Engineering Manager", Confidence: 0.9, Box: ocr.NewBoundingBox(24, 90, 220, 20)},
				{Text: "ACME Technologies Inc.", Confidence: 0.91, Box: ocr.NewBoundingBox(24, 120, 240, 20)},
				{Text: "jane.doe@acme.example", Confidence: 0.92, Box: ocr.NewBoundingBox(24, 150, 230, 20)},
				{Text: "Tel: 02-2345-6789", Confidence: 0.88, Box: ocr.NewBoundingBox(24, 180, 180, 20)},
				{Text: "www.acme.example", Confidence: 0.9, Box: ocr.NewBoundingBox(24, 210, 190, 20)},
			},
			ImageWidth:  640,
			ImageHeight: 384,
		},
	}
}

func (e *FakeEngine) Recognize(_ context.Context, _ []byte, _ ocr.Options) (ocr.RawRecognition, error) {
	e.Calls.Add(1)
	if e.Err != nil {
		return ocr.RawRecognition{}, e.Err
	}
	return e.Raw, nil
}

func (e *FakeEngine) Descriptor() ocr.EngineDescriptor {
	return ocr.EngineDescriptor{ID: e.ID, Name: "Fake Engine", Version: "test", Available: true}
}

func (e *FakeEngine) Preprocess(_ context.Context, data []byte, _ ocr.PreprocessOptions) ([]byte, error) {
	return data, nil
}
