package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/pokerledger/backend/src/store"
)

func TestAddEntry_SignConvention(t *testing.T) {
	cases := []struct {
		name       string
		amountText string
		isBuyIn    bool
		want       int64
	}{
		{"buy-in is negative", "50", true, -50},
		{"exit is positive", "50", false, 50},
		{"magnitude is absolute, buy-in", "-50", true, -50},
		{"magnitude is absolute, exit", "-50", false, 50},
		{"whitespace tolerated", " 100 ", true, -100},
		{"zero is legal input", "0", false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newTestLedger(t)

			tx, err := ledger.AddEntry(tc.amountText, tc.isBuyIn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tx.Amount)

			got, err := ledger.GetEntry(tx.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Amount)
		})
	}
}

func TestAddEntry_InvalidInputIsNoOp(t *testing.T) {
	ledger := newTestLedger(t)

	for _, input := range []string{"abc", "", "12.5", "1e3", "fifty"} {
		_, err := ledger.AddEntry(input, true)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}

	// math.MinInt64 parses but has no int64 absolute value; accepting it
	// would store an exit with a negative amount.
	for _, isBuyIn := range []bool{true, false} {
		_, err := ledger.AddEntry("-9223372036854775808", isBuyIn)
		assert.ErrorIs(t, err, ErrInvalidAmount, "isBuyIn %v", isBuyIn)
	}

	snapshot, err := ledger.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snapshot.Entries, "invalid input must not insert anything")
	assert.Equal(t, int64(0), snapshot.Total)
}

func TestSnapshot_TotalMatchesEntries(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AddEntry("100", true) // -100
	require.NoError(t, err)
	_, err = ledger.AddEntry("150", false) // +150
	require.NoError(t, err)

	snapshot, err := ledger.Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, int64(50), snapshot.Total)

	var sum int64
	for _, e := range snapshot.Entries {
		sum += e.Amount
	}
	assert.Equal(t, sum, snapshot.Total)
}

// Insert buy-in 100, insert exit 150, total = 50; delete the buy-in, total = 150.
func TestLedgerScenario(t *testing.T) {
	ledger := newTestLedger(t)

	buyIn, err := ledger.AddEntry("100", true)
	require.NoError(t, err)
	_, err = ledger.AddEntry("150", false)
	require.NoError(t, err)

	snapshot, err := ledger.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(50), snapshot.Total)

	deleted, err := ledger.DeleteEntries([]string{buyIn.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	snapshot, err = ledger.Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, int64(150), snapshot.Total)
}

func TestAppendTranscription(t *testing.T) {
	ledger := newTestLedger(t)

	tx, err := ledger.AddEntry("100", true)
	require.NoError(t, err)

	updated, err := ledger.AppendTranscription(tx.ID, "won a big pot")
	require.NoError(t, err)
	assert.Equal(t, "won a big pot", updated.Notes, "first transcription must not get a leading newline")

	updated, err = ledger.AppendTranscription(tx.ID, "left at midnight")
	require.NoError(t, err)
	assert.Equal(t, "won a big pot\nleft at midnight", updated.Notes)
}

func TestAppendTranscription_NotFound(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AppendTranscription("missing", "text")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateNotes_Sanitizes(t *testing.T) {
	ledger := newTestLedger(t)

	tx, err := ledger.AddEntry("100", true)
	require.NoError(t, err)

	updated, err := ledger.UpdateNotes(tx.ID, "<b>aggressive</b> table\x00 tonight")
	require.NoError(t, err)
	assert.Equal(t, "aggressive table tonight", updated.Notes)
}
