package http

import (
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type transactionRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"` // decimal euros, "12,50" or "12.50"
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Date     string `json:"date"` // YYYY-MM-DD
	Tags     string `json:"tags"`
}

type transactionResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Tags        string  `json:"tags"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Name:        t.Name,
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.Euros(),
		Kind:        string(t.Kind),
		Category:    t.Category,
		Date:        t.Date.Format("2006-01-02"),
		Tags:        t.Tags,
	}
}

func (s *Server) parseTransaction(r *http.Request, req transactionRequest) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Owner:    ownerFromContext(r.Context()),
		Name:     sanitizeInput(req.Name),
		Amount:   amount,
		Kind:     core.Kind(req.Kind),
		Category: sanitizeInput(req.Category),
		Date:     date,
		Tags:     sanitizeInput(req.Tags),
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	list, err := s.transactions.List(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionResponse, len(list))
	for i, t := range list {
		out[i] = toTransactionResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.parseTransaction(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}

	t.ID = id
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.parseTransaction(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = id

	if err := s.transactions.Update(r.Context(), t); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := ownerFromContext(r.Context())
	if err := s.transactions.Delete(r.Context(), owner, id); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusForWriteError maps domain errors to HTTP status codes.
func statusForWriteError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrKindMismatch),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyOwner):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
