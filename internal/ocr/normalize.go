package ocr

import (
	"fmt"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/sanitize"
)

// confidenceKeywords are substrings whose presence in recognized text
// suggests actual business-card content. Matching is case-insensitive.
var confidenceKeywords = []string{
	"@",
	"tel",
	"電話",
	"mobile",
	"手機",
	"fax",
	"傳真",
	"www.",
	"http",
	"ceo",
	"manager",
	"director",
	"engineer",
	"經理",
	"總監",
}

// Normalizer turns raw engine payloads into validated Results. The
// sanitizer is an explicit capability; the normalizer holds no global
// state.
type Normalizer struct {
	sanitizer sanitize.Sanitizer
}

// NewNormalizer creates a Normalizer backed by the given sanitizer.
func NewNormalizer(s sanitize.Sanitizer) *Normalizer {
	return &Normalizer{sanitizer: s}
}

// Normalize validates a raw recognition payload and builds a Result.
// Block confidences outside [0,1] or malicious text reject the whole
// payload; this is the single validation gate for engine output.
func (n *Normalizer) Normalize(raw RawRecognition) (Result, error) {
	blocks := make([]DetectedText, 0, len(raw.Blocks))
	for i, b := range raw.Blocks {
		dt, err := NewDetectedText(b.Text, b.Confidence, b.Box, b.Language, n.sanitizer)
		if err != nil {
			return Result{}, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, dt)
	}

	text := raw.Text
	if text == "" && len(blocks) > 0 {
		lines := make([]string, 0, len(blocks))
		for _, b := range blocks {
			lines = append(lines, b.Text)
		}
		text = strings.Join(lines, "\n")
	}

	return NewResult(ResultParams{
		RawText:        text,
		DetectedTexts:  blocks,
		Confidence:     AggregateConfidence(raw.Blocks, text),
		ImageWidth:     raw.ImageWidth,
		ImageHeight:    raw.ImageHeight,
		ProcessedAt:    time.Now(),
		ProcessingTime: raw.Duration,
		Engine:         raw.Engine,
	}, n.sanitizer)
}

// Degraded builds the valid-but-empty Result that stands in for a
// failed engine call: empty text, zero confidence, and the failure
// reason annotated on the engine field. Single-image scanning never
// propagates engine errors past this boundary.
func (n *Normalizer) Degraded(engine string, cause error) Result {
	reason := "unknown failure"
	if cause != nil {
		reason = cause.Error()
	}
	annotated := fmt.Sprintf("%s (failed: %s)", engine, reason)
	if engine == "" {
		annotated = fmt.Sprintf("unknown (failed: %s)", reason)
	}
	r, err := NewResult(ResultParams{
		Confidence:  0,
		ProcessedAt: time.Now(),
		Engine:      annotated,
	}, n.sanitizer)
	if err != nil {
		// The annotation itself failed sanitization; keep the empty
		// result without it rather than surfacing an error here.
		r, _ = NewResult(ResultParams{Confidence: 0, ProcessedAt: time.Now(), Engine: "unknown (failed)"}, n.sanitizer)
	}
	return r
}

// AggregateConfidence averages the per-block confidences and applies
// additive content heuristics: longer text and card-like keywords both
// raise the score. The result is clamped to [0,1]. This is a rough
// signal, not a calibrated probability.
func AggregateConfidence(blocks []RawBlock, text string) float64 {
	if len(blocks) == 0 && text == "" {
		return 0
	}

	var score float64
	if len(blocks) > 0 {
		var sum float64
		for _, b := range blocks {
			sum += b.Confidence
		}
		score = sum / float64(len(blocks))
	}

	if len(text) > 10 {
		score += 0.1
	}
	if len(text) > 50 {
		score += 0.1
	}
	if containsKeyword(text) {
		score += 0.1
	}
	return clampFloat(score, 0, 1)
}

func containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range confidenceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
