package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction is a single poker session entry. Negative amounts are buy-ins
// (money committed), positive amounts are exits (money returned). Amounts are
// whole currency units, no subdivision.
type Transaction struct {
	ID     string    `json:"id"`
	Amount int64     `json:"amount"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes"`
}

// NewTransaction creates an entry with a fresh id and the current time.
func NewTransaction(amount int64) *Transaction {
	return &Transaction{
		ID:     uuid.New().String(),
		Amount: amount,
		Date:   time.Now().UTC(),
	}
}

// Label renders the signed row label, e.g. "+150 (exit)" or "-100 (buy in)".
func (t *Transaction) Label() string {
	if t.Amount > 0 {
		return fmt.Sprintf("+%d (exit)", t.Amount)
	}
	return fmt.Sprintf("%d (buy in)", t.Amount)
}
