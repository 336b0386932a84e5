package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"
)

type scheduledPaymentRequest struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	DayOfMonth  int    `json:"day_of_month"`
	IsRecurring bool   `json:"is_recurring"`
}

type scheduledPaymentResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	AmountCents   int64   `json:"amount_cents"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	DayOfMonth    int     `json:"day_of_month"`
	IsRecurring   bool    `json:"is_recurring"`
	LastProcessed string  `json:"last_processed,omitempty"`
}

func toScheduledPaymentResponse(sp core.ScheduledPayment) scheduledPaymentResponse {
	resp := scheduledPaymentResponse{
		ID:          sp.ID,
		Name:        sp.Name,
		AmountCents: sp.Amount.Cents,
		Amount:      sp.Amount.Euros(),
		Category:    sp.Category,
		DayOfMonth:  sp.DayOfMonth,
		IsRecurring: sp.IsRecurring,
	}
	if !sp.LastProcessed.IsEmpty() {
		resp.LastProcessed = sp.LastProcessed.Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleListScheduledPayments(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	list, err := s.scheduler.ListDefinitions(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scheduled payments")
		return
	}

	out := make([]scheduledPaymentResponse, len(list))
	for i, sp := range list {
		out[i] = toScheduledPaymentResponse(sp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateScheduledPayment(w http.ResponseWriter, r *http.Request) {
	var req scheduledPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sp := core.ScheduledPayment{
		Owner:       ownerFromContext(r.Context()),
		Name:        sanitizeInput(req.Name),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		DayOfMonth:  req.DayOfMonth,
		IsRecurring: req.IsRecurring,
	}

	id, err := s.scheduler.CreateDefinition(r.Context(), sp)
	if err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}

	sp.ID = id
	writeJSON(w, http.StatusCreated, toScheduledPaymentResponse(sp))
}

func (s *Server) handleDeleteScheduledPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := ownerFromContext(r.Context())
	if err := s.scheduler.DeleteDefinition(r.Context(), owner, id); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunMaterializer triggers an immediate materialization pass for the
// caller. Safe to call repeatedly: each definition fires at most once per
// month regardless.
func (s *Server) handleRunMaterializer(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	fired, err := s.scheduler.Run(r.Context(), owner, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "materialization failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}
