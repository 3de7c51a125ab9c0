package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cardlens/cardlens/internal/pdf"
	"github.com/cardlens/cardlens/internal/pipeline"
)

// readUpload pulls one multipart file field out of the request, bounded
// by the configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid multipart form or upload too large")
		return nil, "", false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "missing file field "+field)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, "read upload")
		return nil, "", false
	}
	uploadSizeBytes.Observe(float64(len(data)))
	return data, header.Filename, true
}

func (s *Server) scanImageHandler(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readUpload(w, r, "image")
	if !ok {
		scanRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}

	opts := s.scanOpts
	if r.URL.Query().Get("save") == "true" {
		opts.SaveResult = true
	}

	start := time.Now()

	if r.URL.Query().Get("card") == "true" {
		scan, err := s.scanner.ScanToCard(r.Context(), data, opts)
		if err != nil {
			scanRequestsTotal.WithLabelValues("image", "error").Inc()
			s.writeError(w, err)
			return
		}
		scanRequestsTotal.WithLabelValues("image", "success").Inc()
		scanDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
		scanConfidence.Observe(scan.Result.Confidence)
		s.writeJSON(w, http.StatusOK, ScanResponse{
			Success: true,
			Result:  &scan.Result,
			Card:    &scan.Card,
			Fields:  &scan.Fields,
		})
		return
	}

	result, err := s.scanner.Scan(r.Context(), data, opts)
	if err != nil {
		scanRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeError(w, err)
		return
	}
	scanRequestsTotal.WithLabelValues("image", "success").Inc()
	scanDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	scanConfidence.Observe(result.Confidence)
	s.writeJSON(w, http.StatusOK, ScanResponse{Success: true, Result: &result})
}

func (s *Server) scanBatchHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		scanRequestsTotal.WithLabelValues("batch", "error").Inc()
		s.writeErrorMessage(w, http.StatusBadRequest, "invalid multipart form or upload too large")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		scanRequestsTotal.WithLabelValues("batch", "error").Inc()
		s.writeErrorMessage(w, http.StatusBadRequest, "missing file field images")
		return
	}

	var inputs []pipeline.BatchInput
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			continue
		}
		uploadSizeBytes.Observe(float64(len(data)))
		inputs = append(inputs, pipeline.BatchInput{Source: header.Filename, Data: data})
	}

	start := time.Now()
	batch := s.scanner.ScanBatch(r.Context(), inputs, s.scanOpts, nil)
	scanDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	scanRequestsTotal.WithLabelValues("batch", "success").Inc()

	s.writeJSON(w, http.StatusOK, batchResponse(batch))
}

func (s *Server) scanPDFHandler(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r, "pdf")
	if !ok {
		scanRequestsTotal.WithLabelValues("pdf", "error").Inc()
		return
	}

	// pdfcpu wants a file path.
	tmp, err := os.CreateTemp("", "cardlens-upload-*.pdf")
	if err != nil {
		scanRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorMessage(w, http.StatusInternalServerError, "stage upload")
		return
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		scanRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorMessage(w, http.StatusInternalServerError, "stage upload")
		return
	}

	pages, err := pdf.ExtractPageImages(tmp.Name(), r.URL.Query().Get("pages"))
	if err != nil {
		scanRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeError(w, err)
		return
	}
	if len(pages) == 0 {
		scanRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeErrorMessage(w, http.StatusUnprocessableEntity, "no images found in "+filepath.Base(filename))
		return
	}

	inputs := make([]pipeline.BatchInput, 0, len(pages))
	for _, p := range pages {
		inputs = append(inputs, pipeline.BatchInput{
			Source: fmt.Sprintf("%s#page=%d,img=%d", filepath.Base(filename), p.Page, p.Index),
			Data:   p.Data,
		})
	}

	start := time.Now()
	batch := s.scanner.ScanBatch(r.Context(), inputs, s.scanOpts, nil)
	scanDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	scanRequestsTotal.WithLabelValues("pdf", "success").Inc()

	s.writeJSON(w, http.StatusOK, batchResponse(batch))
}

func batchResponse(batch pipeline.BatchResult) BatchResponse {
	resp := BatchResponse{
		Total:       batch.Total(),
		Succeeded:   len(batch.Successful),
		Failed:      len(batch.Failed),
		SuccessRate: batch.SuccessRate(),
		DurationMS:  batch.Duration.Milliseconds(),
	}
	for _, item := range batch.Successful {
		result := item.Result
		resp.Items = append(resp.Items, BatchItemResponse{
			Index:  item.Index,
			Source: item.Source,
			Result: &result,
		})
	}
	for _, f := range batch.Failed {
		resp.Items = append(resp.Items, BatchItemResponse{
			Index:  f.Index,
			Source: f.Source,
			Error:  f.Err.Error(),
		})
	}
	return resp
}
