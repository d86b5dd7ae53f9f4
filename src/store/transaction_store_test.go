package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pokerledger/backend/src/models"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE transactions (
    id TEXT PRIMARY KEY,
    amount INTEGER NOT NULL,
    date INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_transactions_date ON transactions(date DESC);
`

func newTestStore(t *testing.T) *TransactionStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewTransactionStore(db)
}

func entryAt(amount int64, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:     uuid.New().String(),
		Amount: amount,
		Date:   date,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	s := newTestStore(t)

	tx := models.NewTransaction(-100)
	require.NoError(t, s.Insert(tx))

	got, err := s.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, int64(-100), got.Amount)
	assert.True(t, tx.Date.Equal(got.Date), "date must survive a store round trip")
	assert.Equal(t, "", got.Notes)
}

func TestGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByDateDesc(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	oldest := entryAt(-100, now.Add(-2*time.Hour))
	middle := entryAt(150, now.Add(-1*time.Hour))
	newest := entryAt(-25, now)

	// Insert out of order on purpose
	require.NoError(t, s.Insert(middle))
	require.NoError(t, s.Insert(newest))
	require.NoError(t, s.Insert(oldest))

	txs, err := s.ListByDateDesc()
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, newest.ID, txs[0].ID)
	assert.Equal(t, middle.ID, txs[1].ID)
	assert.Equal(t, oldest.ID, txs[2].ID)
}

func TestListByDateDesc_Empty(t *testing.T) {
	s := newTestStore(t)

	txs, err := s.ListByDateDesc()
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

// The running total must always equal the arithmetic sum of stored amounts,
// recomputed on every read, across any sequence of inserts and deletes.
func TestTotalConsistency(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	amounts := []int64{-100, 150, -50, -200, 400, 0, -75}
	ids := make([]string, 0, len(amounts))
	var expected int64

	for i, amount := range amounts {
		tx := entryAt(amount, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Insert(tx))
		ids = append(ids, tx.ID)
		expected += amount

		total, err := s.Total()
		require.NoError(t, err)
		assert.Equal(t, expected, total)
	}

	for i, id := range ids {
		deleted, err := s.Delete(id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		expected -= amounts[i]

		total, err := s.Total()
		require.NoError(t, err)
		assert.Equal(t, expected, total)
	}

	total, err := s.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, "empty store must total zero")
}

func TestDeleteBatch(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	a := entryAt(-100, now)
	b := entryAt(150, now.Add(time.Minute))
	c := entryAt(-50, now.Add(2*time.Minute))
	for _, tx := range []*models.Transaction{a, b, c} {
		require.NoError(t, s.Insert(tx))
	}

	deleted, err := s.Delete(a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	txs, err := s.ListByDateDesc()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, b.ID, txs[0].ID)

	total, err := s.Total()
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestDelete_NoIDs(t *testing.T) {
	s := newTestStore(t)

	deleted, err := s.Delete()
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestUpdateNotes(t *testing.T) {
	s := newTestStore(t)

	tx := models.NewTransaction(-100)
	require.NoError(t, s.Insert(tx))

	require.NoError(t, s.UpdateNotes(tx.ID, "tight table"))

	got, err := s.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "tight table", got.Notes)
	assert.Equal(t, int64(-100), got.Amount, "notes update must not touch other fields")
}

func TestAppendNotes(t *testing.T) {
	s := newTestStore(t)

	tx := models.NewTransaction(-100)
	require.NoError(t, s.Insert(tx))

	require.NoError(t, s.AppendNotes(tx.ID, "lost the flip"))
	got, err := s.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "lost the flip", got.Notes, "appending to empty notes must not add a leading newline")

	require.NoError(t, s.AppendNotes(tx.ID, "rebuy at 9pm"))
	got, err = s.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "lost the flip\nrebuy at 9pm", got.Notes)
}

// An append issued against notes that changed after they were last read must
// land on the current value, not the stale one.
func TestAppendNotes_SeesConcurrentEdit(t *testing.T) {
	s := newTestStore(t)

	tx := models.NewTransaction(-100)
	require.NoError(t, s.Insert(tx))

	require.NoError(t, s.UpdateNotes(tx.ID, "edited while transcribing"))
	require.NoError(t, s.AppendNotes(tx.ID, "voice note"))

	got, err := s.GetByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited while transcribing\nvoice note", got.Notes)
}

func TestAppendNotes_NotFound(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.AppendNotes("missing", "text"), ErrNotFound)
}

func TestUpdateNotes_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateNotes("missing", "whatever")
	assert.ErrorIs(t, err, ErrNotFound)
}
