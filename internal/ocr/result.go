package ocr

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/sanitize"
)

// HighConfidenceThreshold is the per-block score above which a detection
// is treated as reliable.
const HighConfidenceThreshold = 0.8

// DetectedText is a single recognized text block with its location and
// per-block confidence.
type DetectedText struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
	Language   string      `json:"language,omitempty"`
}

// NewDetectedText validates and builds a DetectedText. The text is passed
// through the sanitizer; confidence must lie in [0,1].
func NewDetectedText(text string, confidence float64, box BoundingBox, language string, s sanitize.Sanitizer) (DetectedText, error) {
	if confidence < 0 || confidence > 1 {
		return DetectedText{}, errx.Validation("confidence", fmt.Sprintf("%.4f outside [0,1]", confidence))
	}
	cleaned, err := s.Clean(text)
	if err != nil {
		return DetectedText{}, err
	}
	return DetectedText{Text: cleaned, Confidence: confidence, Box: box, Language: language}, nil
}

// IsHighConfidence reports whether the block meets the reliability threshold.
func (d DetectedText) IsHighConfidence() bool { return d.Confidence >= HighConfidenceThreshold }

// IsMeaningless reports whether the block is too short to carry information
// (fewer than two runes after trimming).
func (d DetectedText) IsMeaningless() bool {
	return utf8.RuneCountInString(sanitize.CollapseLine(d.Text)) < 2
}

// Result is the immutable outcome of one recognition pass over one image.
// Instances are only built through NewResult or DegradedResult, so every
// Result in circulation satisfies the field invariants.
type Result struct {
	ID             string         `json:"id"`
	RawText        string         `json:"raw_text"`
	DetectedTexts  []DetectedText `json:"detected_texts,omitempty"`
	Confidence     float64        `json:"confidence"`
	ImageData      []byte         `json:"-"`
	ImageWidth     int            `json:"image_width,omitempty"`
	ImageHeight    int            `json:"image_height,omitempty"`
	ProcessedAt    time.Time      `json:"processed_at"`
	ProcessingTime time.Duration  `json:"processing_time_ms,omitempty"`
	Engine         string         `json:"engine,omitempty"`
}

// ResultParams carries the inputs to NewResult. Zero dimensions with no
// image data mean "dimensions absent".
type ResultParams struct {
	ID             string
	RawText        string
	DetectedTexts  []DetectedText
	Confidence     float64
	ImageData      []byte
	ImageWidth     int
	ImageHeight    int
	ProcessedAt    time.Time
	ProcessingTime time.Duration
	Engine         string
}

// NewResult validates params and builds a Result. Construction is the
// validation gate: invalid input never yields an instance.
func NewResult(p ResultParams, s sanitize.Sanitizer) (Result, error) {
	if p.Confidence < 0 || p.Confidence > 1 {
		return Result{}, errx.Validation("confidence", fmt.Sprintf("%.4f outside [0,1]", p.Confidence))
	}
	if p.ProcessingTime < 0 {
		return Result{}, errx.Validation("processing_time", "negative duration")
	}
	dimsPresent := len(p.ImageData) > 0 || p.ImageWidth != 0 || p.ImageHeight != 0
	if dimsPresent {
		if p.ImageWidth <= 0 {
			return Result{}, errx.Validation("image_width", fmt.Sprintf("%d is not positive", p.ImageWidth))
		}
		if p.ImageHeight <= 0 {
			return Result{}, errx.Validation("image_height", fmt.Sprintf("%d is not positive", p.ImageHeight))
		}
	}

	rawText, err := s.Clean(p.RawText)
	if err != nil {
		return Result{}, err
	}
	engine, err := s.CleanLine(p.Engine)
	if err != nil {
		return Result{}, err
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	processedAt := p.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	r := Result{
		ID:             id,
		RawText:        rawText,
		Confidence:     p.Confidence,
		ImageWidth:     p.ImageWidth,
		ImageHeight:    p.ImageHeight,
		ProcessedAt:    processedAt,
		ProcessingTime: p.ProcessingTime,
		Engine:         engine,
	}
	if len(p.DetectedTexts) > 0 {
		r.DetectedTexts = append([]DetectedText(nil), p.DetectedTexts...)
	}
	if len(p.ImageData) > 0 {
		r.ImageData = append([]byte(nil), p.ImageData...)
	}
	return r, nil
}

// CopyOption overrides a field when copying a Result.
type CopyOption func(*Result)

// WithEngine overrides the engine annotation on the copy.
func WithEngine(engine string) CopyOption {
	return func(r *Result) { r.Engine = engine }
}

// WithConfidence overrides the aggregate confidence on the copy,
// clamped to [0,1].
func WithConfidence(c float64) CopyOption {
	return func(r *Result) { r.Confidence = clampFloat(c, 0, 1) }
}

// WithProcessedAt overrides the processing timestamp on the copy.
func WithProcessedAt(t time.Time) CopyOption {
	return func(r *Result) { r.ProcessedAt = t }
}

// WithoutImageData drops the image bytes from the copy.
func WithoutImageData() CopyOption {
	return func(r *Result) { r.ImageData = nil }
}

// CopyWith returns a new Result with the given overrides applied. Fields
// already validated at construction are not re-validated.
func (r Result) CopyWith(opts ...CopyOption) Result {
	out := r
	if len(r.DetectedTexts) > 0 {
		out.DetectedTexts = append([]DetectedText(nil), r.DetectedTexts...)
	}
	if len(r.ImageData) > 0 {
		out.ImageData = append([]byte(nil), r.ImageData...)
	}
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// Equal compares two results field by field.
func (r Result) Equal(other Result) bool {
	if r.ID != other.ID ||
		r.RawText != other.RawText ||
		r.Confidence != other.Confidence ||
		r.ImageWidth != other.ImageWidth ||
		r.ImageHeight != other.ImageHeight ||
		!r.ProcessedAt.Equal(other.ProcessedAt) ||
		r.ProcessingTime != other.ProcessingTime ||
		r.Engine != other.Engine {
		return false
	}
	if len(r.DetectedTexts) != len(other.DetectedTexts) {
		return false
	}
	for i := range r.DetectedTexts {
		if r.DetectedTexts[i] != other.DetectedTexts[i] {
			return false
		}
	}
	return bytes.Equal(r.ImageData, other.ImageData)
}

// HasImage reports whether the result carries the source image.
func (r Result) HasImage() bool { return len(r.ImageData) > 0 }

// String renders a diagnostic summary. Image bytes are never included.
func (r Result) String() string {
	return fmt.Sprintf("ocr.Result{id=%s blocks=%d confidence=%.2f engine=%q text=%d chars}",
		r.ID, len(r.DetectedTexts), r.Confidence, r.Engine, utf8.RuneCountInString(r.RawText))
}
