package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/pokerledger/backend/src/logger"
	"github.com/username/pokerledger/backend/src/models"
	"github.com/username/pokerledger/backend/src/services"
	"github.com/username/pokerledger/backend/src/store"
)

// dateLabelLayout matches the list row's numeric date + standard time format.
const dateLabelLayout = "1/2/2006, 3:04:05 PM"

type TransactionHandler struct {
	ledger services.LedgerService
}

func NewTransactionHandler(ledger services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// transactionRow is a list/detail row: the stored entity plus display labels.
type transactionRow struct {
	models.Transaction
	Label     string `json:"label"`
	DateLabel string `json:"date_label"`
}

func newTransactionRow(tx *models.Transaction) transactionRow {
	return transactionRow{
		Transaction: *tx,
		Label:       tx.Label(),
		DateLabel:   tx.Date.Format(dateLabelLayout),
	}
}

type listResponse struct {
	Transactions []transactionRow `json:"transactions"`
	Total        int64            `json:"total"`
}

// HandleListTransactions returns every entry newest-first with the running
// total, recomputed on each request.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.ledger.Snapshot()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to read ledger snapshot", "error", err)
		sendJSONError(w, "Failed to read transactions", http.StatusInternalServerError)
		return
	}

	rows := make([]transactionRow, 0, len(snapshot.Entries))
	for i := range snapshot.Entries {
		rows = append(rows, newTransactionRow(&snapshot.Entries[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Transactions: rows, Total: snapshot.Total})
}

type addRequest struct {
	Amount  string `json:"amount"`
	IsBuyIn bool   `json:"is_buy_in"`
}

// HandleAddTransaction inserts a new entry. Unparseable amount input is a
// silent no-op: 204, no error body, nothing stored.
func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.ledger.AddEntry(req.Amount, req.IsBuyIn)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			logger.FromContext(r.Context()).Debug("Ignoring unparseable amount input", "amount", req.Amount)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to insert transaction", "error", err)
		sendJSONError(w, "Failed to add transaction", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Transaction added", "id", tx.ID, "amount", tx.Amount)
	writeJSON(w, http.StatusCreated, newTransactionRow(tx))
}

// HandleGetTransaction returns a single entry for the detail screen.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tx, err := h.ledger.GetEntry(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to read transaction", "id", id, "error", err)
		sendJSONError(w, "Failed to read transaction", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionRow(tx))
}

// HandleDeleteTransaction removes one entry. Deletion is immediate and
// unrecoverable.
func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.ledger.DeleteEntries([]string{id})
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete transaction", "id", id, "error", err)
		sendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		sendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	logger.FromContext(r.Context()).Info("Transaction deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRequest defines the body of a batch delete (multi-row swipe delete).
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// HandleDeleteTransactions removes a batch of entries in one call.
func (h *TransactionHandler) HandleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		sendJSONError(w, "ids cannot be empty", http.StatusBadRequest)
		return
	}

	deleted, err := h.ledger.DeleteEntries(req.IDs)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete transactions", "error", err)
		sendJSONError(w, "Failed to delete transactions", http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context()).Info("Transactions deleted", "requested", len(req.IDs), "deleted", deleted)
	w.WriteHeader(http.StatusNoContent)
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// HandleUpdateNotes replaces the notes of an entry with user-edited text.
// The store alone mutates records; there are no live shared references.
func (h *TransactionHandler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.ledger.UpdateNotes(id, req.Notes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to update notes", "id", id, "error", err)
		sendJSONError(w, "Failed to update notes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionRow(tx))
}
