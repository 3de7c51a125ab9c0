package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/sanitize"
)

func newCard(t *testing.T, name string, opts ...func(*card.Params)) card.BusinessCard {
	t.Helper()
	p := card.Params{Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	c, err := card.New(p, sanitize.New())
	require.NoError(t, err)
	return c
}

func TestMemoryCardCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c := newCard(t, "Jane Doe")
	require.NoError(t, m.Save(ctx, c))

	got, err := m.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.Equal(got))

	// Duplicate save fails.
	assert.Error(t, m.Save(ctx, c))

	updated := c.CopyWith(card.WithCompany("ACME"))
	require.NoError(t, m.Update(ctx, updated))
	got, err = m.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Company)

	require.NoError(t, m.Delete(ctx, c.ID))
	_, err = m.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, c.ID), ErrNotFound)
	assert.ErrorIs(t, m.Update(ctx, updated), ErrNotFound)
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	alice := newCard(t, "Alice Chen", func(p *card.Params) {
		p.Company = "ACME"
		p.Email = "alice@acme.example"
		p.Tags = []string{"supplier"}
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	bob := newCard(t, "Bob Lin", func(p *card.Params) {
		p.Company = "Globex"
		p.IsFavorite = true
		p.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	})
	require.NoError(t, m.Save(ctx, alice))
	require.NoError(t, m.Save(ctx, bob))

	byText, err := m.Search(ctx, Query{Text: "acme"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, alice.ID, byText[0].ID)

	byTag, err := m.Search(ctx, Query{Tag: "supplier"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, alice.ID, byTag[0].ID)

	favs, err := m.Search(ctx, Query{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, bob.ID, favs[0].ID)

	all, err := m.Search(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bob.ID, all[0].ID, "newest first")
}

func TestMemoryListPagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c := newCard(t, "Card", func(p *card.Params) {
			p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		})
		require.NoError(t, m.Save(ctx, c))
	}

	page, err := m.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := m.List(ctx, 0, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	beyond, err := m.List(ctx, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := sanitize.New()

	old, err := ocr.NewResult(ocr.ResultParams{
		Confidence:  0.5,
		ProcessedAt: time.Now().Add(-10 * 24 * time.Hour),
	}, s)
	require.NoError(t, err)
	recent, err := ocr.NewResult(ocr.ResultParams{
		Confidence:  0.9,
		ProcessedAt: time.Now(),
	}, s)
	require.NoError(t, err)

	require.NoError(t, m.SaveResult(ctx, old))
	require.NoError(t, m.SaveResult(ctx, recent))

	history, err := m.History(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, recent.ID, history[0].ID, "newest first")

	removed, err := m.CleanupOldResults(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	history, err = m.History(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, recent.ID, history[0].ID)

	require.NoError(t, m.DeleteResult(ctx, recent.ID))
	assert.ErrorIs(t, m.DeleteResult(ctx, recent.ID), ErrNotFound)
}

func TestNotFoundDoesNotMatchOtherBackendErrors(t *testing.T) {
	outage := errx.Wrap(errx.KindDataSource, errors.New("connection refused"), "select card")

	assert.False(t, errors.Is(outage, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("get card: %w", ErrNotFound), ErrNotFound))
}
