package services

import (
	"context"
	"errors"

	"github.com/username/pokerledger/backend/src/models"
)

// Define common service errors
var (
	// ErrInvalidAmount marks an unparseable amount input. The API contract
	// treats it as a silent no-op, never a user-facing failure.
	ErrInvalidAmount = errors.New("amount is not a valid integer")

	// ErrMissingAPIKey is returned when transcription is attempted without a
	// configured credential. Recoverable: the process keeps running.
	ErrMissingAPIKey = errors.New("transcription API key is not configured")

	// ErrInvalidResponse is returned when the transcription endpoint replies
	// with anything other than a JSON object carrying a text field.
	ErrInvalidResponse = errors.New("invalid response from transcription service")

	ErrTranscriptionInFlight = errors.New("a transcription is already in progress for this transaction")
	ErrRecordingInProgress   = errors.New("a recording is already in progress for this transaction")
	ErrNoActiveRecording     = errors.New("no active recording for this transaction")
)

// LedgerSnapshot is the full list-view read: every entry in date-descending
// order plus the running total, recomputed on every call.
type LedgerSnapshot struct {
	Entries []models.Transaction `json:"entries"`
	Total   int64                `json:"total"`
}

// LedgerService defines the core transaction lifecycle operations.
type LedgerService interface {
	AddEntry(amountText string, isBuyIn bool) (*models.Transaction, error)
	GetEntry(id string) (*models.Transaction, error)
	DeleteEntries(ids []string) (int64, error)
	UpdateNotes(id string, notes string) (*models.Transaction, error)
	AppendTranscription(id string, text string) (*models.Transaction, error)
	Snapshot() (*LedgerSnapshot, error)
}

// TranscriptionService converts a recorded audio file into text via a remote
// speech-to-text endpoint. One attempt per call, no retry.
type TranscriptionService interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
