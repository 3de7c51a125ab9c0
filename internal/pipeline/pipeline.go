// Package pipeline orchestrates card scanning end to end: engine
// selection, result caching, normalization, field extraction, and
// structured parsing. Scanner is the single entry point used by the
// CLI and the HTTP server.
package pipeline

import (
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/singleflight"

	"github.com/cardlens/cardlens/internal/barcode"
	"github.com/cardlens/cardlens/internal/cache"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/parse"
	"github.com/cardlens/cardlens/internal/sanitize"
	"github.com/cardlens/cardlens/internal/store"
)

// Scanner runs recognition over card images. Optional collaborators
// (parser, cache, store, barcode decoder) are nil-safe: a Scanner with
// only a registry still produces normalized results.
type Scanner struct {
	registry   *ocr.Registry
	normalizer *ocr.Normalizer
	sanitizer  sanitize.Sanitizer

	parser  parse.Parser       // optional: structured field parsing
	cache   *cache.ResultCache // optional: content-hash result cache
	store   store.Store        // optional: card and history persistence
	decoder barcode.Decoder    // optional: QR contact fast path

	logger     *slog.Logger
	workers    int
	preprocess bool

	inflight singleflight.Group
}

// Registry returns the engine registry so callers can inspect or switch
// engines.
func (s *Scanner) Registry() *ocr.Registry { return s.registry }

// Store returns the configured store, or nil.
func (s *Scanner) Store() store.Store { return s.store }

// Builder assembles a Scanner. Errors are collected and reported once
// at Build.
type Builder struct {
	scanner *Scanner
	err     error
}

// NewBuilder creates a builder with defaults: platform engines
// registered, sanitizing normalizer, NumCPU batch workers, no cache, no
// store, no parser.
func NewBuilder() *Builder {
	s := sanitize.New()
	b := &Builder{scanner: &Scanner{
		registry:   ocr.NewRegistry(),
		normalizer: ocr.NewNormalizer(s),
		sanitizer:  s,
		logger:     slog.Default(),
		workers:    runtime.NumCPU(),
		preprocess: true,
	}}
	for _, e := range ocr.PlatformEngines() {
		b.scanner.registry.Register(e)
	}
	return b
}

// WithEngine registers an additional engine.
func (b *Builder) WithEngine(e ocr.Engine) *Builder {
	if e == nil {
		b.fail(errors.New("pipeline: nil engine"))
		return b
	}
	b.scanner.registry.Register(e)
	return b
}

// WithPreferredEngine selects the engine used for scans. The engine
// must already be registered.
func (b *Builder) WithPreferredEngine(id string) *Builder {
	if err := b.scanner.registry.SetPreferred(id); err != nil {
		b.fail(err)
	}
	return b
}

// WithParser enables structured field parsing.
func (b *Builder) WithParser(p parse.Parser) *Builder {
	b.scanner.parser = p
	return b
}

// WithCache enables the content-hash result cache.
func (b *Builder) WithCache(c *cache.ResultCache) *Builder {
	b.scanner.cache = c
	return b
}

// WithStore enables card and history persistence.
func (b *Builder) WithStore(st store.Store) *Builder {
	b.scanner.store = st
	return b
}

// WithDecoder enables the QR contact fast path.
func (b *Builder) WithDecoder(d barcode.Decoder) *Builder {
	b.scanner.decoder = d
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.scanner.logger = l
	}
	return b
}

// WithWorkers sets the batch worker count. Values below 1 fall back to
// NumCPU.
func (b *Builder) WithWorkers(n int) *Builder {
	if n >= 1 {
		b.scanner.workers = n
	}
	return b
}

// WithPreprocess toggles engine-side image preparation before
// recognition.
func (b *Builder) WithPreprocess(enabled bool) *Builder {
	b.scanner.preprocess = enabled
	return b
}

// Build returns the assembled Scanner or the first configuration error.
func (b *Builder) Build() (*Scanner, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.scanner.registry.Available()) == 0 {
		return nil, ocr.ErrNoEngine
	}
	return b.scanner, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
