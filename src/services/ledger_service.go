package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/username/pokerledger/backend/src/models"
	"github.com/username/pokerledger/backend/src/security/validation"
	"github.com/username/pokerledger/backend/src/store"
)

type ledgerServiceImpl struct {
	store *store.TransactionStore
}

func NewLedgerService(s *store.TransactionStore) LedgerService {
	return &ledgerServiceImpl{store: s}
}

// AddEntry parses the amount text and inserts a new transaction. The sign is
// determined by isBuyIn: buy-ins are stored negative, exits positive.
// Unparseable input yields ErrInvalidAmount and no insertion.
func (l *ledgerServiceImpl) AddEntry(amountText string, isBuyIn bool) (*models.Transaction, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(amountText), 10, 64)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	// math.MinInt64 has no int64 absolute value; negating it overflows back
	// to itself, so treat it like any other unusable input.
	if parsed == math.MinInt64 {
		return nil, ErrInvalidAmount
	}

	magnitude := parsed
	if magnitude < 0 {
		magnitude = -magnitude
	}
	amount := magnitude
	if isBuyIn {
		amount = -magnitude
	}

	tx := models.NewTransaction(amount)
	if err := l.store.Insert(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (l *ledgerServiceImpl) GetEntry(id string) (*models.Transaction, error) {
	return l.store.GetByID(id)
}

func (l *ledgerServiceImpl) DeleteEntries(ids []string) (int64, error) {
	return l.store.Delete(ids...)
}

// UpdateNotes replaces the notes of a transaction with sanitized user text.
func (l *ledgerServiceImpl) UpdateNotes(id string, notes string) (*models.Transaction, error) {
	cleaned := validation.StripUnprintable(validation.SanitizeText(notes))
	if err := l.store.UpdateNotes(id, cleaned); err != nil {
		return nil, err
	}
	return l.store.GetByID(id)
}

// AppendTranscription joins transcribed text onto the existing notes with a
// newline separator. Appending to empty notes stores the text verbatim. The
// store performs the append atomically so a concurrent notes edit is never
// clobbered by a stale read.
func (l *ledgerServiceImpl) AppendTranscription(id string, text string) (*models.Transaction, error) {
	if err := l.store.AppendNotes(id, validation.StripUnprintable(text)); err != nil {
		return nil, err
	}
	return l.store.GetByID(id)
}

// Snapshot returns all entries newest-first together with the running total.
// The total is recomputed from the store on every call, never cached.
func (l *ledgerServiceImpl) Snapshot() (*LedgerSnapshot, error) {
	entries, err := l.store.ListByDateDesc()
	if err != nil {
		return nil, err
	}
	total, err := l.store.Total()
	if err != nil {
		return nil, err
	}
	return &LedgerSnapshot{Entries: entries, Total: total}, nil
}
