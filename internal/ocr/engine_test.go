package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	id string
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, _ Options) (RawRecognition, error) {
	return RawRecognition{Engine: f.id}, nil
}

func (f *fakeEngine) Descriptor() EngineDescriptor {
	return EngineDescriptor{ID: f.id, Name: f.id, Available: true}
}

func (f *fakeEngine) Preprocess(_ context.Context, b []byte, _ PreprocessOptions) ([]byte, error) {
	return b, nil
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	_, err := r.Preferred()
	assert.ErrorIs(t, err, ErrNoEngine)
	assert.Empty(t, r.Available())
}

func TestRegistryRegisterAndPrefer(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeEngine{id: "beta"})
	r.Register(&fakeEngine{id: "alpha"})

	// First registered engine is preferred by default.
	e, err := r.Preferred()
	require.NoError(t, err)
	assert.Equal(t, "beta", e.Descriptor().ID)

	require.NoError(t, r.SetPreferred("alpha"))
	e, err = r.Preferred()
	require.NoError(t, err)
	assert.Equal(t, "alpha", e.Descriptor().ID)

	err = r.SetPreferred("missing")
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestRegistryAvailableSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeEngine{id: "zeta"})
	r.Register(&fakeEngine{id: "alpha"})

	descs := r.Available()
	require.Len(t, descs, 2)
	assert.Equal(t, "alpha", descs[0].ID)
	assert.Equal(t, "zeta", descs[1].ID)
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeEngine{id: "alpha"})

	e, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", e.Descriptor().ID)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrNoEngine)
}
