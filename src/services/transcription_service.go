package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/username/pokerledger/backend/src/logger"
)

var audioContentTypes = map[string]string{
	".m4a":  "audio/m4a",
	".mp4":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

type whisperTranscriptionService struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	model      string
}

// NewTranscriptionService builds the client for the remote speech-to-text
// endpoint. An empty apiKey is accepted here; Transcribe reports it per call.
func NewTranscriptionService(apiKey, endpoint, model string, timeout time.Duration) TranscriptionService {
	return &whisperTranscriptionService{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		endpoint:   endpoint,
		model:      model,
	}
}

// Transcribe uploads the audio file as one multipart POST and extracts the
// transcribed text from the JSON response. Single attempt, no retry.
func (s *whisperTranscriptionService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return "", ErrMissingAPIKey
	}

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer audioFile.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(audioPath)))
	partHeader.Set("Content-Type", contentTypeForAudio(audioPath))
	filePart, err := writer.CreatePart(partHeader)
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(filePart, audioFile); err != nil {
		return "", fmt.Errorf("reading audio file: %w", err)
	}

	if err := writer.WriteField("model", s.model); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L.Warn("Transcription endpoint returned non-success status",
			"status", resp.StatusCode, "bodyLength", len(respBody))
		return "", fmt.Errorf("transcription endpoint returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Text == nil {
		return "", fmt.Errorf("%w: missing text field", ErrInvalidResponse)
	}
	return *parsed.Text, nil
}

func contentTypeForAudio(path string) string {
	if ct, ok := audioContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "audio/m4a"
}
