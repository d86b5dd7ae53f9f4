package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/pokerledger/backend/src/logger"
	"github.com/username/pokerledger/backend/src/security/validation"
	"github.com/username/pokerledger/backend/src/services"
	"github.com/username/pokerledger/backend/src/store"
)

type AnnotationHandler struct {
	ledger         services.LedgerService
	annotations    *services.AnnotationManager
	maxUploadBytes int64
}

func NewAnnotationHandler(ledger services.LedgerService, annotations *services.AnnotationManager, maxUploadBytes int64) *AnnotationHandler {
	return &AnnotationHandler{
		ledger:         ledger,
		annotations:    annotations,
		maxUploadBytes: maxUploadBytes,
	}
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Notes string `json:"notes"`
}

// HandleTranscribeAudio drives the full annotation workflow for one voice
// note: spool the uploaded audio to a file scoped by the transaction id, hand
// it to the transcription client, and append the recognized text to the
// transaction's notes. On any failure the notes are left untouched and the
// error is surfaced as a plain message.
func (h *AnnotationHandler) HandleTranscribeAudio(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if _, err := h.ledger.GetEntry(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Failed to read transaction for transcription", "id", id, "error", err)
		sendJSONError(w, "Failed to read transaction", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "id", id, "error", err, "limit", h.maxUploadBytes)
		sendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve audio file from request", "id", id, "error", err)
		sendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		ctxLogger.Warn("Uploaded audio reports size too large", "id", id, "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		sendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client-declared audio type", "id", id, "contentType", clientContentType, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateAudioContentByMagicBytes(file)
	if err != nil {
		ctxLogger.Warn("Audio content validation failed", "id", id, "filename", fileHeader.Filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctxLogger.Info("Audio content validated", "id", id, "filename", fileHeader.Filename, "detectedType", detectedContentType)

	session := h.annotations.Session(id)
	if err := session.StartRecording(); err != nil {
		switch {
		case errors.Is(err, services.ErrTranscriptionInFlight), errors.Is(err, services.ErrRecordingInProgress):
			sendJSONError(w, err.Error(), http.StatusConflict)
		default:
			ctxLogger.Error("Failed to start audio capture", "id", id, "error", err)
			sendJSONError(w, "Failed to start audio capture", http.StatusInternalServerError)
		}
		return
	}

	if _, err := io.Copy(session, file); err != nil {
		session.Abort()
		ctxLogger.Error("Failed to spool audio upload", "id", id, "error", err)
		sendJSONError(w, "Failed to store uploaded audio", http.StatusInternalServerError)
		return
	}

	text, err := session.StopAndTranscribe(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingAPIKey):
			sendJSONError(w, "Transcription is unavailable: API credential is not configured", http.StatusServiceUnavailable)
		case errors.Is(err, services.ErrInvalidResponse):
			sendJSONError(w, "Invalid response", http.StatusBadGateway)
		default:
			ctxLogger.Warn("Transcription failed", "id", id, "error", err)
			sendJSONError(w, fmt.Sprintf("Transcription error: %v", err), http.StatusBadGateway)
		}
		return
	}

	updated, err := h.ledger.GetEntry(id)
	if err != nil {
		ctxLogger.Error("Failed to re-read transaction after transcription", "id", id, "error", err)
		sendJSONError(w, "Failed to read updated transaction", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Transcription appended to notes", "id", id, "textLength", len(text))
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text, Notes: updated.Notes})
}

// HandleGetAnnotationStatus reports the workflow state and last error for the
// detail screen's progress/error surface.
func (h *AnnotationHandler) HandleGetAnnotationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.ledger.GetEntry(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to read transaction for annotation status", "id", id, "error", err)
		sendJSONError(w, "Failed to read transaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.annotations.Session(id).Status())
}
