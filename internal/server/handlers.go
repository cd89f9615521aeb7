package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tavini/pricecart/internal/cart"
	"github.com/tavini/pricecart/internal/scan"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// corsJSONError writes a JSON error body with CORS headers set
func corsJSONError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleScan accepts a captured image and runs one scan attempt
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// Max 50MB to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		corsJSONError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		corsJSONError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		corsJSONError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsJSONError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)

	still, err := scan.DecodeCapture(data, contentType)
	if err != nil {
		slog.Error("Error decoding capture", "filename", header.Filename, "error", err)
		corsJSONError(w, "Unsupported or corrupt image", http.StatusBadRequest)
		return
	}

	texts, barcodes := s.detector.DetectFrame(r.Context(), still)
	outcome := s.orch.OnCapture(r.Context(), still, texts, barcodes)

	writeJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome.Kind.String(),
		"state":   s.orch.State().String(),
		"item":    outcome.Item,
		"pending": outcome.Candidate,
		"message": outcome.Message,
	})
}

// detectContentType falls back to the file extension when the part
// carries no usable Content-Type header
func detectContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleScanState reports the pipeline state and any pending candidate
func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   s.orch.State().String(),
		"pending": s.orch.Pending(),
	})
}

// handleScanConfirm commits the pending candidate with edited fields
func (s *Server) handleScanConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		UnitPrice float64 `json:"unitPrice"`
		Quantity  int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := s.orch.Confirm(req.Name, req.UnitPrice, req.Quantity)
	if err != nil {
		slog.Error("Error confirming scanned item", "error", err)
		corsJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// handleScanCancel dismisses the pending confirmation
func (s *Server) handleScanCancel(w http.ResponseWriter, r *http.Request) {
	s.orch.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCart returns the current cart contents and totals
func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	items := s.cart.Items()
	if items == nil {
		items = []cart.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"total":     s.cart.Total(),
		"itemCount": s.cart.Count(),
	})
}

// handleAddItem adds an item to the cart directly
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		UnitPrice float64 `json:"unitPrice"`
		Quantity  int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := s.cart.Add(req.Name, req.UnitPrice, req.Quantity)
	if err != nil {
		corsJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// handleRemoveItem removes an item from the cart
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Item ID required", http.StatusBadRequest)
		return
	}
	if !s.cart.Remove(id) {
		corsError(w, "Item not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleFinalize archives the current cart as a purchase session
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	session, err := s.cart.Finalize()
	if err != nil {
		slog.Error("Error finalizing purchase", "error", err)
		corsJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// handleListHistory returns archived purchase sessions, newest first
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.cart.History()
	if err != nil {
		slog.Error("Error listing purchase history", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if sessions == nil {
		sessions = []*cart.Session{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// handleClearHistory deletes all archived sessions
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.ClearHistory(); err != nil {
		slog.Error("Error clearing purchase history", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleReloadSession loads an archived session back into the cart
func (s *Server) handleReloadSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}
	if err := s.cart.Reload(id); err != nil {
		corsError(w, "Session not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
