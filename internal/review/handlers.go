package review

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-scanner/internal/scanning"
)

// maxUploadSize bounds multipart uploads; 50MB covers high-resolution
// phone photos.
const maxUploadSize = int64(50 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadScan accepts a multipart receipt upload, runs the scan
// pipeline and returns the resulting draft for review
func (s *Server) handleUploadScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		message := "Error parsing form"
		if err.Error() == "http: request body too large" {
			message = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, message, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		message := "No file provided"
		if err.Error() == "http: no such file" {
			message = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, message, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := sniffContentType(header.Header.Get("Content-Type"), header.Filename)

	draft, err := s.service.ProcessScan(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing scan", "filename", header.Filename, "error", err)
		switch {
		case errors.Is(err, scanning.ErrImageDecode):
			jsonError(w, "Could not read the image. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF.", http.StatusBadRequest)
		case errors.Is(err, scanning.ErrEngineUnavailable), errors.Is(err, scanning.ErrRecognition):
			jsonError(w, "Could not extract text from the image. Please try again.", http.StatusBadGateway)
		default:
			jsonError(w, "Error processing receipt. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, draft)
}

// sniffContentType falls back to the file extension when the upload
// carries no usable MIME type
func sniffContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
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

// handleListDrafts returns all drafts awaiting review
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.service.ListDrafts()
	if err != nil {
		slog.Error("Error listing drafts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, drafts)
}

// handleGetDraft returns a single draft by ID
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.service.GetDraft(r.PathValue("id"))
	if err != nil {
		corsError(w, "Draft not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// handleDeleteDraft discards a draft
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDraft(r.PathValue("id")); err != nil {
		slog.Error("Error deleting draft", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirmDraft applies the reviewer's corrections and hands the
// confirmed record to the expense creator
func (s *Server) handleConfirmDraft(w http.ResponseWriter, r *http.Request) {
	var corrections Corrections
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&corrections); err != nil {
			jsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	record, err := s.service.ConfirmDraft(r.Context(), r.PathValue("id"), corrections)
	if err != nil {
		slog.Error("Error confirming draft", "id", r.PathValue("id"), "error", err)
		if errors.Is(err, ErrDraftNotFound) {
			jsonError(w, "Draft not found", http.StatusNotFound)
			return
		}
		jsonError(w, "Could not confirm the draft. Check the amount and date.", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
