package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/pokerledger/backend/src/models"
)

// ErrNotFound is returned when no transaction exists for the given id.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore owns the canonical set of transaction records. All reads
// return copies; mutations go through explicit store operations.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Insert persists a new transaction.
func (s *TransactionStore) Insert(tx *models.Transaction) error {
	_, err := s.db.Exec(
		`INSERT INTO transactions (id, amount, date, notes) VALUES (?, ?, ?, ?)`,
		tx.ID, tx.Amount, tx.Date.UTC().UnixNano(), tx.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction %s: %w", tx.ID, err)
	}
	return nil
}

// GetByID returns a single transaction, or ErrNotFound.
func (s *TransactionStore) GetByID(id string) (*models.Transaction, error) {
	row := s.db.QueryRow(
		`SELECT id, amount, date, notes FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying transaction %s: %w", id, err)
	}
	return tx, nil
}

// ListByDateDesc returns all transactions ordered by date descending.
func (s *TransactionStore) ListByDateDesc() ([]models.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT id, amount, date, notes FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over transactions: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// UpdateNotes replaces the notes of the given transaction.
func (s *TransactionStore) UpdateNotes(id, notes string) error {
	result, err := s.db.Exec(`UPDATE transactions SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("updating notes for transaction %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking notes update for transaction %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendNotes joins text onto the existing notes with a newline separator,
// or stores it verbatim when the notes are empty. The append happens in a
// single statement so a concurrent notes update cannot be overwritten by a
// stale read.
func (s *TransactionStore) AppendNotes(id, text string) error {
	result, err := s.db.Exec(
		`UPDATE transactions SET notes = CASE WHEN notes = '' THEN ? ELSE notes || char(10) || ? END WHERE id = ?`,
		text, text, id)
	if err != nil {
		return fmt.Errorf("appending notes for transaction %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking notes append for transaction %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the given transactions. Removal is immediate and
// unrecoverable. Returns the number of rows deleted.
func (s *TransactionStore) Delete(ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM transactions WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking deleted transactions: %w", err)
	}
	return affected, nil
}

// Total recomputes the running total from the stored amounts. It is never
// cached or maintained incrementally.
func (s *TransactionStore) Total() (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM transactions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("computing total: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var dateNanos int64
	if err := row.Scan(&tx.ID, &tx.Amount, &dateNanos, &tx.Notes); err != nil {
		return nil, err
	}
	tx.Date = time.Unix(0, dateNanos).UTC()
	return &tx, nil
}
