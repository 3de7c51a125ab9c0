// Package store persists business cards and recognition history. The
// pipeline depends only on the interfaces here; the sqlx-backed and
// in-memory implementations are interchangeable.
package store

import (
	"context"
	"time"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
)

// ErrNotFound signals that no record exists for the given id.
var ErrNotFound = errx.New(errx.KindDataSource, "record not found")

// CardStore is the persistence surface for business cards.
type CardStore interface {
	// Save inserts a new card. Saving an existing id fails.
	Save(ctx context.Context, c card.BusinessCard) error

	// Get returns the card with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (card.BusinessCard, error)

	// Update replaces an existing card. Missing ids fail with ErrNotFound.
	Update(ctx context.Context, c card.BusinessCard) error

	// Delete removes the card with the given id or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Search returns cards matching the query, newest first.
	Search(ctx context.Context, q Query) ([]card.BusinessCard, error)

	// List returns cards newest first with offset pagination.
	List(ctx context.Context, limit, offset int) ([]card.BusinessCard, error)
}

// Query filters card searches. Text matches name, company, and email
// substrings case-insensitively; Tag matches exactly; FavoritesOnly
// keeps favorites.
type Query struct {
	Text          string
	Tag           string
	FavoritesOnly bool
	Limit         int
	Offset        int
}

// HistoryStore is the persistence surface for recognition results.
type HistoryStore interface {
	// SaveResult records a recognition result.
	SaveResult(ctx context.Context, r ocr.Result) error

	// History returns saved results, newest first.
	History(ctx context.Context, limit, offset int) ([]ocr.Result, error)

	// DeleteResult removes the result with the given id or fails with
	// ErrNotFound.
	DeleteResult(ctx context.Context, id string) error

	// CleanupOldResults removes results processed before the cutoff and
	// returns how many were removed.
	CleanupOldResults(ctx context.Context, olderThan time.Duration) (int, error)
}

// Store bundles both persistence surfaces.
type Store interface {
	CardStore
	HistoryStore
}
