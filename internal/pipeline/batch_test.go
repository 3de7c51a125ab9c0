package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/ocr"
)

// recordingProgress captures progress events for assertions.
type recordingProgress struct {
	mu        sync.Mutex
	started   int
	progress  int
	completed bool
	errors    int
}

func (r *recordingProgress) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = total
}

func (r *recordingProgress) OnProgress(current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress++
}

func (r *recordingProgress) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = true
}

func (r *recordingProgress) OnError(current int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
}

func TestScanBatchIsolatesFailures(t *testing.T) {
	engine := &stubEngine{id: "stub", raw: cardRecognition()}
	s := newTestScanner(t, engine)

	inputs := []BatchInput{
		{Source: "a.jpg", Data: []byte("image-a")},
		{Source: "b.jpg", Data: nil}, // empty data fails validation
		{Source: "c.jpg", Data: []byte("image-c")},
	}

	progress := &recordingProgress{}
	result := s.ScanBatch(context.Background(), inputs, ocr.DefaultOptions(), progress)

	require.Len(t, result.Successful, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b.jpg", result.Failed[0].Source)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.InDelta(t, 2.0/3.0, result.SuccessRate(), 1e-9)

	// Successes keep input order.
	assert.Equal(t, "a.jpg", result.Successful[0].Source)
	assert.Equal(t, "c.jpg", result.Successful[1].Source)

	assert.Equal(t, 3, progress.started)
	assert.Equal(t, 3, progress.progress)
	assert.Equal(t, 1, progress.errors)
	assert.True(t, progress.completed)
}

// faultyImageEngine fails recognition for one specific payload and
// succeeds for everything else.
type faultyImageEngine struct {
	inner    *stubEngine
	badImage []byte
}

func (e *faultyImageEngine) Recognize(ctx context.Context, data []byte, opts ocr.Options) (ocr.RawRecognition, error) {
	if bytes.Equal(data, e.badImage) {
		return ocr.RawRecognition{}, errors.New("recognizer exploded")
	}
	return e.inner.Recognize(ctx, data, opts)
}

func (e *faultyImageEngine) Descriptor() ocr.EngineDescriptor { return e.inner.Descriptor() }

func (e *faultyImageEngine) Preprocess(ctx context.Context, data []byte, opts ocr.PreprocessOptions) ([]byte, error) {
	return e.inner.Preprocess(ctx, data, opts)
}

func TestScanBatchSurfacesRecognitionFailures(t *testing.T) {
	engine := &faultyImageEngine{
		inner:    &stubEngine{id: "stub", raw: cardRecognition()},
		badImage: []byte("image-b"),
	}
	s := newTestScanner(t, engine)

	inputs := []BatchInput{
		{Source: "a.jpg", Data: []byte("image-a")},
		{Source: "b.jpg", Data: []byte("image-b")},
		{Source: "c.jpg", Data: []byte("image-c")},
	}

	result := s.ScanBatch(context.Background(), inputs, ocr.DefaultOptions(), nil)

	require.Len(t, result.Successful, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, "b.jpg", result.Failed[0].Source)
	assert.ErrorContains(t, result.Failed[0].Err, "recognizer exploded")
	assert.InDelta(t, 2.0/3.0, result.SuccessRate(), 1e-9)

	// The throwing item must not reappear as a degraded success.
	for _, item := range result.Successful {
		assert.NotContains(t, item.Result.Engine, "(failed:")
	}
}

func TestScanBatchEmpty(t *testing.T) {
	s := newTestScanner(t, &stubEngine{id: "stub", raw: cardRecognition()})

	result := s.ScanBatch(context.Background(), nil, ocr.DefaultOptions(), nil)

	assert.Zero(t, result.Total())
	assert.Equal(t, 0.0, result.SuccessRate())
}

func TestScanBatchCanceledContext(t *testing.T) {
	s := newTestScanner(t, &stubEngine{id: "stub", raw: cardRecognition()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []BatchInput{
		{Source: "a.jpg", Data: []byte("image-a")},
		{Source: "b.jpg", Data: []byte("image-b")},
	}
	result := s.ScanBatch(ctx, inputs, ocr.DefaultOptions(), nil)

	assert.Empty(t, result.Successful)
	assert.Len(t, result.Failed, 2)
}

func TestSuccessRate(t *testing.T) {
	r := BatchResult{
		Successful: []BatchItem{{Index: 0}, {Index: 1}, {Index: 2}},
		Failed:     []BatchFailure{{Index: 3}},
	}
	assert.InDelta(t, 0.75, r.SuccessRate(), 1e-9)
	assert.Equal(t, 4, r.Total())
}
