// Package cache avoids redundant recognition calls for identical
// images. Entries are keyed by a content hash of the raw image bytes
// and bounded by an expirable LRU: capacity-evicted or TTL-expired
// entries simply trigger a fresh recognition.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
)

const (
	// DefaultRetention is how long a cached result stays usable.
	// Older entries are stale and re-trigger recognition.
	DefaultRetention = 7 * 24 * time.Hour

	// DefaultCapacity bounds the number of cached results.
	DefaultCapacity = 512
)

// ErrMiss signals that no usable entry exists for a key. Callers
// branch on it to invoke the engine; it is never a silent nil.
var ErrMiss = errx.New(errx.KindDataSource, "cache miss")

// Config controls cache bounds.
type Config struct {
	Capacity  int
	Retention time.Duration
}

// DefaultConfig returns the default cache bounds.
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity, Retention: DefaultRetention}
}

// ResultCache stores recognition results keyed by image content hash.
// Safe for concurrent use.
type ResultCache struct {
	lru       *expirable.LRU[string, ocr.Result]
	retention time.Duration
	now       func() time.Time
}

// New creates a ResultCache with the given bounds. Zero or negative
// fields fall back to defaults.
func New(cfg Config) *ResultCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &ResultCache{
		lru:       expirable.NewLRU[string, ocr.Result](cfg.Capacity, nil, cfg.Retention),
		retention: cfg.Retention,
		now:       time.Now,
	}
}

// Key derives the cache key for an image: lowercase hex SHA-256 of the
// byte content. Metadata plays no part, so re-encoded copies of the
// same bytes always collide on purpose.
func Key(imageBytes []byte) string {
	sum := sha256.Sum256(imageBytes)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for key. A missing or stale entry
// returns ErrMiss; stale entries are dropped on the way out.
func (c *ResultCache) Get(key string) (ocr.Result, error) {
	r, ok := c.lru.Get(key)
	if !ok {
		return ocr.Result{}, ErrMiss
	}
	if !c.IsFresh(r) {
		c.lru.Remove(key)
		return ocr.Result{}, ErrMiss
	}
	return r, nil
}

// IsFresh reports whether a result's ProcessedAt falls within the
// retention window.
func (c *ResultCache) IsFresh(r ocr.Result) bool {
	age := c.now().Sub(r.ProcessedAt)
	return age >= 0 && age <= c.retention
}

// Put stores a result under key, overwriting any previous entry.
func (c *ResultCache) Put(key string, r ocr.Result) {
	c.lru.Add(key, r)
}

// Remove drops the entry for key if present.
func (c *ResultCache) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int { return c.lru.Len() }

// Purge drops all entries.
func (c *ResultCache) Purge() { c.lru.Purge() }
