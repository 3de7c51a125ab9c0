package ocr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Accuracy selects the speed/quality trade-off a recognition engine
// should use.
type Accuracy string

const (
	AccuracyFast     Accuracy = "fast"
	AccuracyAccurate Accuracy = "accurate"
)

// Options controls a single recognition call. All fields are advisory
// hints; engines ignore options they do not support.
type Options struct {
	// Languages lists preferred recognition languages in priority order
	// (BCP-47-ish tags such as "en", "zh-Hant").
	Languages []string

	// Accuracy selects fast or accurate recognition.
	Accuracy Accuracy

	// LanguageCorrection enables engine-side language model correction.
	LanguageCorrection bool

	// RotationCorrection enables engine-side rotation handling.
	RotationCorrection bool

	// MaxProcessingTime is an advisory per-call budget. Engines may
	// return partial results early; callers enforce hard deadlines via
	// the context instead.
	MaxProcessingTime time.Duration

	// SaveResult asks the pipeline to persist the result to history.
	SaveResult bool
}

// DefaultOptions returns the options used when the caller passes none.
func DefaultOptions() Options {
	return Options{
		Accuracy:           AccuracyAccurate,
		LanguageCorrection: true,
		RotationCorrection: true,
	}
}

// PreprocessOptions controls engine-side image preparation.
type PreprocessOptions struct {
	Grayscale       bool
	EnhanceContrast bool
	Sharpen         bool
	MaxDimension    int // longest side cap in pixels; 0 = no cap
	RotationDegrees float64
}

// RawBlock is one recognized text block as reported by an engine,
// before normalization. Boxes use top-left-origin pixel coordinates;
// engines reporting normalized bottom-left coordinates convert via
// FromNormalized before returning.
type RawBlock struct {
	Text       string
	Confidence float64
	Box        BoundingBox
	Language   string
}

// RawRecognition is the unvalidated payload an engine returns from one
// recognition call. The normalizer turns it into a Result; nothing
// downstream of the boundary touches this type.
type RawRecognition struct {
	Text        string
	Blocks      []RawBlock
	ImageWidth  int
	ImageHeight int
	Duration    time.Duration
	Engine      string
}

// EngineDescriptor describes an available engine implementation.
type EngineDescriptor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Available    bool     `json:"available"`
	Languages    []string `json:"languages,omitempty"`
	Platform     string   `json:"platform,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Engine is a pluggable text recognition backend.
type Engine interface {
	// Recognize runs OCR over the image bytes. Implementations honor
	// ctx cancellation between internal stages but return a single
	// completed payload; there are no partial results.
	Recognize(ctx context.Context, imageBytes []byte, opts Options) (RawRecognition, error)

	// Descriptor reports the engine's identity and capabilities.
	Descriptor() EngineDescriptor

	// Preprocess prepares image bytes for recognition.
	Preprocess(ctx context.Context, imageBytes []byte, opts PreprocessOptions) ([]byte, error)
}

// ErrNoEngine is returned when no recognition backend is linked or
// the preferred engine is unknown.
var ErrNoEngine = errors.New("ocr: no recognition engine available")

// Registry tracks the registered engines and the preferred one.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	engines   map[string]Engine
	preferred string
}

// NewRegistry returns an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine. The first registered engine becomes the
// preferred one until SetPreferred overrides it.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := e.Descriptor().ID
	r.engines[id] = e
	if r.preferred == "" {
		r.preferred = id
	}
}

// Available lists descriptors of all registered engines, sorted by ID.
func (r *Registry) Available() []EngineDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EngineDescriptor, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetPreferred selects the engine used by Preferred.
func (r *Registry) SetPreferred(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[id]; !ok {
		return fmt.Errorf("ocr: unknown engine %q: %w", id, ErrNoEngine)
	}
	r.preferred = id
	return nil
}

// Preferred returns the currently preferred engine.
func (r *Registry) Preferred() (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.preferred == "" {
		return nil, ErrNoEngine
	}
	e, ok := r.engines[r.preferred]
	if !ok {
		return nil, ErrNoEngine
	}
	return e, nil
}

// Get returns a specific engine by ID.
func (r *Registry) Get(id string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[id]
	if !ok {
		return nil, fmt.Errorf("ocr: unknown engine %q: %w", id, ErrNoEngine)
	}
	return e, nil
}
