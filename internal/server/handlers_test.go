package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/pipeline"
	"github.com/cardlens/cardlens/internal/store"
	"github.com/cardlens/cardlens/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()

	engine := testutil.NewFakeEngine("fake")
	scanner, err := pipeline.NewBuilder().
		WithEngine(engine).
		WithPreferredEngine("fake").
		WithStore(store.NewMemory()).
		Build()
	require.NoError(t, err)

	srv := NewServer(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 20,
		TimeoutSec:  10,
		ScanOptions: ocr.DefaultOptions(),
	}, scanner, nil)

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	return srv, mux
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestEnginesEndpoint(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/engines", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp EnginesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "fake", resp.Engines[0].ID)
	assert.Equal(t, "fake", resp.Preferred)
}

func TestScanImageEndpoint(t *testing.T) {
	_, mux := newTestServer(t)

	body, contentType := multipartBody(t, "image", "card.png", testutil.CardImagePNG())
	req := httptest.NewRequest(http.MethodPost, "/scan/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Contains(t, resp.Result.RawText, "Jane Doe")
}

func TestScanImageWithCardAssembly(t *testing.T) {
	_, mux := newTestServer(t)

	body, contentType := multipartBody(t, "image", "card.png", testutil.CardImagePNG())
	req := httptest.NewRequest(http.MethodPost, "/scan/image?card=true", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Card)
	assert.Equal(t, "Jane Doe", resp.Card.Name)
	assert.Equal(t, "jane.doe@acme.example", resp.Card.Email)
}

func TestScanImageMissingFile(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/scan/image", bytes.NewBufferString("nope"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanBatchEndpoint(t *testing.T) {
	_, mux := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range []string{"a.png", "b.png"} {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(testutil.CardImagePNG())
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan/batch", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Succeeded)
	assert.InDelta(t, 1.0, resp.SuccessRate, 1e-9)
}

func TestCardCRUD(t *testing.T) {
	_, mux := newTestServer(t)

	// Create.
	payload := `{"name":"Jane Doe","email":"jane@acme.example","tags":["conference"]}`
	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	// Read.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Update.
	update := `{"name":"Jane Doe","company":"ACME","email":"jane@acme.example"}`
	req = httptest.NewRequest(http.MethodPut, "/cards/"+id, bytes.NewBufferString(update))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "ACME", updated["company"])

	// List.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards?q=jane", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list CardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	// Delete.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cards/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCardValidation(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewBufferString(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	// Other clients are unaffected.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	handler := srv.corsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/scan/image", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
