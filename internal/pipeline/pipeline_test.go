package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/barcode"
	"github.com/cardlens/cardlens/internal/cache"
	"github.com/cardlens/cardlens/internal/extract"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/parse"
	"github.com/cardlens/cardlens/internal/store"
)

// stubEngine returns a fixed payload and counts recognition calls.
type stubEngine struct {
	id    string
	raw   ocr.RawRecognition
	err   error
	calls atomic.Int32
}

func (e *stubEngine) Recognize(_ context.Context, _ []byte, _ ocr.Options) (ocr.RawRecognition, error) {
	e.calls.Add(1)
	return e.raw, e.err
}

func (e *stubEngine) Descriptor() ocr.EngineDescriptor {
	return ocr.EngineDescriptor{ID: e.id, Name: e.id, Available: true}
}

func (e *stubEngine) Preprocess(_ context.Context, data []byte, _ ocr.PreprocessOptions) ([]byte, error) {
	return data, nil
}

func cardRecognition() ocr.RawRecognition {
	return ocr.RawRecognition{
		Blocks: []ocr.RawBlock{
			{Text: "Jane Doe", Confidence: 0.95, Box: ocr.NewBoundingBox(10, 10, 200, 40)},
			{Text: "Engineering Manager", Confidence: 0.9, Box: ocr.NewBoundingBox(10, 50, 200, 80)},
			{Text: "jane.doe@acme.example", Confidence: 0.92, Box: ocr.NewBoundingBox(10, 90, 200, 120)},
			{Text: "Tel: 02-2345-6789", Confidence: 0.88, Box: ocr.NewBoundingBox(10, 130, 200, 160)},
		},
		ImageWidth:  640,
		ImageHeight: 480,
	}
}

func newTestScanner(t *testing.T, e ocr.Engine, opts ...func(*Builder)) *Scanner {
	t.Helper()
	b := NewBuilder().WithEngine(e).WithWorkers(2)
	require.NoError(t, b.scanner.registry.SetPreferred(e.Descriptor().ID))
	for _, o := range opts {
		o(b)
	}
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestScanProducesNormalizedResult(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: cardRecognition()}
	s := newTestScanner(t, engine)

	result, err := s.Scan(context.Background(), []byte("fake-image"), ocr.DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, result.RawText, "Jane Doe")
	assert.Len(t, result.DetectedTexts, 4)
	assert.Equal(t, "stub", result.Engine)
	assert.Greater(t, result.Confidence, 0.8)
	assert.NotEmpty(t, result.ID)
}

func TestScanRejectsEmptyImage(t *testing.T) {
	s := newTestScanner(t, &stubEngine{id: "stub"})

	_, err := s.Scan(context.Background(), nil, ocr.DefaultOptions())
	require.Error(t, err)
}

func TestScanEngineFailureYieldsDegradedResult(t *testing.T) {
	engine := &stubEngine{id: "stub", err: errors.New("model exploded")}
	s := newTestScanner(t, engine)

	result, err := s.Scan(context.Background(), []byte("fake-image"), ocr.DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, result.RawText)
	assert.Zero(t, result.Confidence)
	assert.Contains(t, result.Engine, "(failed:")
	assert.Contains(t, result.Engine, "model exploded")
}

func TestScanFailureIsNotCached(t *testing.T) {
	engine := &stubEngine{id: "stub", err: errors.New("transient outage")}
	s := newTestScanner(t, engine, func(b *Builder) {
		b.WithCache(cache.New(cache.DefaultConfig()))
	})

	img := []byte("flaky-image")
	degraded, err := s.Scan(context.Background(), img, ocr.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, degraded.Engine, "(failed:")

	// Engine recovers; the degraded result must not shadow it.
	engine.err = nil
	engine.raw = cardRecognition()

	result, err := s.Scan(context.Background(), img, ocr.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, result.RawText, "Jane Doe")
	assert.Equal(t, int32(2), engine.calls.Load())
}

func TestScanFailureIsNotPersisted(t *testing.T) {
	engine := &stubEngine{id: "stub", err: errors.New("model exploded")}
	mem := store.NewMemory()
	s := newTestScanner(t, engine, func(b *Builder) {
		b.WithStore(mem)
	})

	opts := ocr.DefaultOptions()
	opts.SaveResult = true
	_, err := s.Scan(context.Background(), []byte("fake-image"), opts)
	require.NoError(t, err)

	history, err := mem.History(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestScanCancellationIsAnError(t *testing.T) {
	engine := &stubEngine{id: "stub", err: context.Canceled}
	s := newTestScanner(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, []byte("fake-image"), ocr.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanUsesCache(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: cardRecognition()}
	s := newTestScanner(t, engine, func(b *Builder) {
		b.WithCache(cache.New(cache.DefaultConfig()))
	})

	img := []byte("same-image")
	first, err := s.Scan(context.Background(), img, ocr.DefaultOptions())
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), img, ocr.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestScanPersistsWhenRequested(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: cardRecognition()}
	mem := store.NewMemory()
	s := newTestScanner(t, engine, func(b *Builder) {
		b.WithStore(mem)
	})

	opts := ocr.DefaultOptions()
	opts.SaveResult = true
	result, err := s.Scan(context.Background(), []byte("fake-image"), opts)
	require.NoError(t, err)

	history, err := mem.History(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
}

func TestScanToCardAssemblesCard(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: cardRecognition()}
	s := newTestScanner(t, engine)

	scan, err := s.ScanToCard(context.Background(), []byte("fake-image"), ocr.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", scan.Card.Name)
	assert.Equal(t, "jane.doe@acme.example", scan.Card.Email)
	assert.NotEmpty(t, scan.Card.Phone)
	assert.Equal(t, []string{"jane.doe@acme.example"}, scan.Fields.Emails)
}

func TestScanToCardFailsWithoutName(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: ocr.RawRecognition{
		Blocks: []ocr.RawBlock{
			{Text: "0912-345-678", Confidence: 0.9, Box: ocr.NewBoundingBox(0, 0, 10, 10)},
		},
		ImageWidth:  100,
		ImageHeight: 100,
	}}
	s := newTestScanner(t, engine)

	_, err := s.ScanToCard(context.Background(), []byte("fake-image"), ocr.DefaultOptions())
	require.Error(t, err)
}

func TestMergeCardKeepsPhoneAndMobileDistinct(t *testing.T) {
	fields := extract.Fields{Phones: []string{"0912-345-678", "02-2345-6789"}}

	// Parser classified the first number as a mobile; the phone slot
	// takes the next distinct number instead of repeating it.
	parsed := parse.ParsedCard{Name: "Jane Doe", Mobile: "0912-345-678"}
	p := mergeCard(barcode.Contact{}, parsed, fields, ocr.Result{})
	assert.Equal(t, "0912-345-678", p.Mobile)
	assert.Equal(t, "02-2345-6789", p.Phone)

	// With a single number there is nothing left for the phone slot.
	single := extract.Fields{Phones: []string{"0912-345-678"}}
	p = mergeCard(barcode.Contact{}, parsed, single, ocr.Result{})
	assert.Equal(t, "0912-345-678", p.Mobile)
	assert.Empty(t, p.Phone)

	// Identical parser phone and mobile collapse to the phone slot.
	both := parse.ParsedCard{Name: "Jane Doe", Phone: "0912-345-678", Mobile: "0912-345-678"}
	p = mergeCard(barcode.Contact{}, both, extract.Fields{}, ocr.Result{})
	assert.Equal(t, "0912-345-678", p.Phone)
	assert.Empty(t, p.Mobile)
}

func TestBuilderRequiresEngine(t *testing.T) {
	_, err := NewBuilder().Build()
	if err != nil {
		assert.ErrorIs(t, err, ocr.ErrNoEngine)
	} else {
		// A platform engine was linked in via build tags.
		t.Skip("platform engine available")
	}
}
