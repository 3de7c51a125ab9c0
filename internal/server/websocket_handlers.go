package server

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cardlens/cardlens/internal/pipeline"
)

// upgrader with permissive origin checking; the CORS policy is enforced
// at deployment level for websocket clients.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// wsBatchRequest is the single message a client sends to start a batch.
type wsBatchRequest struct {
	Images []wsImage `json:"images"`
	Save   bool      `json:"save"`
}

type wsImage struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64-encoded image bytes
}

// wsMessage is every frame the server sends back.
type wsMessage struct {
	Type    string             `json:"type"` // progress, result, summary, error
	Current int                `json:"current,omitempty"`
	Total   int                `json:"total,omitempty"`
	Item    *BatchItemResponse `json:"item,omitempty"`
	Summary *BatchResponse     `json:"summary,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// batchWebSocketHandler streams batch progress over a websocket. The
// client sends one request message; the server answers with progress
// frames, one result frame per item, and a final summary.
func (s *Server) batchWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	var req wsBatchRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsMessage{Type: "error", Error: "invalid request message"})
		return
	}
	if len(req.Images) == 0 {
		_ = conn.WriteJSON(wsMessage{Type: "error", Error: "no images in request"})
		return
	}

	inputs := make([]pipeline.BatchInput, 0, len(req.Images))
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			_ = conn.WriteJSON(wsMessage{Type: "error", Error: "invalid base64 data for " + img.Name})
			return
		}
		inputs = append(inputs, pipeline.BatchInput{Source: img.Name, Data: data})
	}

	opts := s.scanOpts
	opts.SaveResult = req.Save

	// Gorilla connections allow one concurrent writer; progress events
	// arrive from worker goroutines.
	var writeMu sync.Mutex
	progress := pipeline.FuncProgressCallback(func(current, total int) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteJSON(wsMessage{Type: "progress", Current: current, Total: total})
	})

	batch := s.scanner.ScanBatch(r.Context(), inputs, opts, progress)

	writeMu.Lock()
	defer writeMu.Unlock()
	resp := batchResponse(batch)
	for i := range resp.Items {
		_ = conn.WriteJSON(wsMessage{Type: "result", Item: &resp.Items[i]})
	}
	_ = conn.WriteJSON(wsMessage{Type: "summary", Summary: &resp})
}
