package ocr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/sanitize"
)

func TestAggregateConfidence(t *testing.T) {
	blocks := func(scores ...float64) []RawBlock {
		out := make([]RawBlock, len(scores))
		for i, c := range scores {
			out[i] = RawBlock{Confidence: c}
		}
		return out
	}

	tests := []struct {
		name   string
		blocks []RawBlock
		text   string
		want   float64
	}{
		{"empty input", nil, "", 0},
		{"mean only, short text", blocks(0.4, 0.6), "abc", 0.5},
		{"length bonus over 10", blocks(0.5), "hello world!", 0.6},
		{"both length bonuses", blocks(0.5), "this line is definitely longer than fifty characters total", 0.7},
		{"keyword bonus", blocks(0.5), "Tel: 12345", 0.6},
		{"cjk keyword bonus", blocks(0.5), "電話 12345", 0.6},
		{"email symbol counts as keyword", blocks(0.4), "a@b.cc", 0.5},
		{"clamped at one", blocks(0.95, 0.99), "Mobile: +886-912-345-678 www.example.com and much more text here", 1.0},
		{"no blocks but text", nil, "hello world @", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AggregateConfidence(tt.blocks, tt.text), 1e-9)
		})
	}
}

func TestNormalizeBuildsResult(t *testing.T) {
	n := NewNormalizer(sanitize.New())

	raw := RawRecognition{
		Blocks: []RawBlock{
			{Text: "Jane Doe", Confidence: 0.95, Box: NewBoundingBox(10, 10, 200, 30), Language: "en"},
			{Text: "jane@acme.example", Confidence: 0.90, Box: NewBoundingBox(10, 50, 260, 24)},
		},
		ImageWidth:  640,
		ImageHeight: 400,
		Duration:    80 * time.Millisecond,
		Engine:      "stub v1",
	}

	r, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\njane@acme.example", r.RawText, "raw text assembled from blocks when absent")
	assert.Len(t, r.DetectedTexts, 2)
	assert.Equal(t, 640, r.ImageWidth)
	assert.Equal(t, "stub v1", r.Engine)
	// mean 0.925 + length bonus 0.1 + keyword bonus ("@") 0.1
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
}

func TestNormalizeRejectsBadBlock(t *testing.T) {
	n := NewNormalizer(sanitize.New())

	_, err := n.Normalize(RawRecognition{
		Blocks: []RawBlock{{Text: "ok", Confidence: 1.5}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block 0")
}

func TestDegradedResult(t *testing.T) {
	n := NewNormalizer(sanitize.New())

	r := n.Degraded("tesseract 5.3", errors.New("image decode failed"))
	assert.Empty(t, r.RawText)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, "tesseract 5.3 (failed: image decode failed)", r.Engine)
	assert.NotEmpty(t, r.ID)

	anon := n.Degraded("", nil)
	assert.Equal(t, "unknown (failed: unknown failure)", anon.Engine)
}
