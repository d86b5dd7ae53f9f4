package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/pokerledger/backend/src/logger"
)

// AnnotationState names a phase of the record-then-transcribe workflow.
type AnnotationState string

const (
	StateIdle         AnnotationState = "idle"
	StateRecording    AnnotationState = "recording"
	StateTranscribing AnnotationState = "transcribing"
)

// AnnotationStatus is the progress/error surface of an annotation session.
type AnnotationStatus struct {
	State AnnotationState `json:"state"`
	Error string          `json:"error,omitempty"`
}

// AnnotationManager tracks one annotation session per transaction. Sessions
// expire after a TTL; eviction removes any abandoned spool file.
type AnnotationManager struct {
	transcriber TranscriptionService
	ledger      LedgerService
	spoolDir    string

	mu       sync.Mutex
	sessions *cache.Cache
}

func NewAnnotationManager(transcriber TranscriptionService, ledger LedgerService, spoolDir string, sessionTTL time.Duration) *AnnotationManager {
	if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		logger.L.Warn("Failed to create audio spool directory", "path", spoolDir, "error", err)
	}
	sessions := cache.New(sessionTTL, sessionTTL/2)
	sessions.OnEvicted(func(txID string, v interface{}) {
		if sess, ok := v.(*AnnotationSession); ok {
			sess.discard()
		}
	})
	return &AnnotationManager{
		transcriber: transcriber,
		ledger:      ledger,
		spoolDir:    spoolDir,
		sessions:    sessions,
	}
}

// Session returns the annotation session for a transaction, creating it on
// first use. Each call refreshes the session's expiry.
func (m *AnnotationManager) Session(txID string) *AnnotationSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sessions.Get(txID); ok {
		sess := v.(*AnnotationSession)
		m.sessions.SetDefault(txID, sess)
		return sess
	}

	sess := &AnnotationSession{
		txID:        txID,
		spoolPath:   filepath.Join(m.spoolDir, txID+".m4a"),
		state:       StateIdle,
		transcriber: m.transcriber,
		ledger:      m.ledger,
	}
	m.sessions.SetDefault(txID, sess)
	return sess
}

// AnnotationSession is the per-transaction state machine
// idle -> recording -> transcribing -> idle. Success and failure both return
// to idle; only one cycle may be in flight at a time.
type AnnotationSession struct {
	txID        string
	spoolPath   string
	transcriber TranscriptionService
	ledger      LedgerService

	mu        sync.Mutex
	state     AnnotationState
	lastError string
	file      *os.File
}

// StartRecording opens the spool file scoped by the transaction id and moves
// the session to the recording state. Failure leaves the session idle with a
// visible error message.
func (s *AnnotationSession) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateTranscribing:
		return ErrTranscriptionInFlight
	case StateRecording:
		return ErrRecordingInProgress
	}

	f, err := os.Create(s.spoolPath)
	if err != nil {
		s.lastError = fmt.Sprintf("Recording failed: %v", err)
		return fmt.Errorf("creating audio spool file: %w", err)
	}
	s.file = f
	s.state = StateRecording
	return nil
}

// Write streams captured audio bytes into the spool file. Only valid while
// the session is recording.
func (s *AnnotationSession) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording || s.file == nil {
		return 0, ErrNoActiveRecording
	}
	return s.file.Write(p)
}

// StopAndTranscribe finishes the capture and hands the audio file to the
// transcription client. On success the text is appended to the transaction's
// notes and any prior error is cleared; on failure the notes are left
// untouched and the error message is retained for the status surface. Both
// paths return the session to idle.
func (s *AnnotationSession) StopAndTranscribe(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return "", ErrNoActiveRecording
	}
	closeErr := s.file.Close()
	s.file = nil
	if closeErr != nil {
		s.state = StateIdle
		s.lastError = fmt.Sprintf("Recording failed: %v", closeErr)
		s.mu.Unlock()
		return "", fmt.Errorf("closing audio spool file: %w", closeErr)
	}
	s.state = StateTranscribing
	s.lastError = ""
	audioPath := s.spoolPath
	s.mu.Unlock()

	// Not cancellable once submitted; runs to completion or failure even if
	// the caller disconnects. The transcription client's own timeout still
	// bounds the call.
	text, err := s.transcriber.Transcribe(context.WithoutCancel(ctx), audioPath)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if removeErr := os.Remove(audioPath); removeErr != nil && !os.IsNotExist(removeErr) {
		logger.L.Warn("Failed to remove audio spool file", "path", audioPath, "error", removeErr)
	}

	if err != nil {
		s.lastError = fmt.Sprintf("Transcription error: %v", err)
		return "", err
	}

	if _, err := s.ledger.AppendTranscription(s.txID, text); err != nil {
		s.lastError = fmt.Sprintf("Failed to save transcription: %v", err)
		return "", err
	}

	s.lastError = ""
	return text, nil
}

// Abort cancels an active recording before transcription was requested,
// removing the partial spool file. No-op outside the recording state.
func (s *AnnotationSession) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if err := os.Remove(s.spoolPath); err != nil && !os.IsNotExist(err) {
		logger.L.Warn("Failed to remove audio spool file", "path", s.spoolPath, "error", err)
	}
	s.state = StateIdle
}

// Status reports the current state and the last error message, if any.
func (s *AnnotationSession) Status() AnnotationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AnnotationStatus{State: s.state, Error: s.lastError}
}

// discard releases session resources on eviction. An in-flight transcription
// keeps running; only the spool file of an abandoned recording is removed.
func (s *AnnotationSession) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.state == StateRecording {
		if err := os.Remove(s.spoolPath); err != nil && !os.IsNotExist(err) {
			logger.L.Warn("Failed to remove abandoned audio spool file", "path", s.spoolPath, "error", err)
		}
	}
	s.state = StateIdle
}
