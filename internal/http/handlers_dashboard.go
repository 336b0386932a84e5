package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

// AdminStore is the storage surface the broadcast alert endpoints need.
type AdminStore interface {
	GetSystemConfig(ctx context.Context, key string) (storage.SystemConfigEntry, error)
	SetSystemConfig(ctx context.Context, e storage.SystemConfigEntry) error
}

type moneyJSON struct {
	Cents int64   `json:"cents"`
	Euros float64 `json:"euros"`
}

func toMoneyJSON(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Euros: m.Euros()}
}

type budgetJSON struct {
	Category categoryResponse `json:"category"`
	Total    moneyJSON        `json:"total"`
	Pct      float64          `json:"pct"`
	State    string           `json:"state"`
	Excess   moneyJSON        `json:"excess"`
}

type dashboardJSON struct {
	Year              int          `json:"year"`
	Month             int          `json:"month"`
	Income            moneyJSON    `json:"income"`
	Expenses          moneyJSON    `json:"expenses"`
	Net               moneyJSON    `json:"net"`
	OpeningBalance    moneyJSON    `json:"opening_balance"`
	ClosingBalance    moneyJSON    `json:"closing_balance"`
	Budgets           []budgetJSON `json:"budgets"`
	PrevMonthExpenses moneyJSON    `json:"prev_month_expenses"`
	GrossHoldings     moneyJSON    `json:"gross_holdings"`
	NetHoldings       moneyJSON    `json:"net_holdings"`
	NetWorth          moneyJSON    `json:"net_worth"`
	Alert             string       `json:"alert,omitempty"`
}

func toDashboardJSON(v services.DashboardView) dashboardJSON {
	budgets := make([]budgetJSON, len(v.Budgets))
	for i, b := range v.Budgets {
		budgets[i] = budgetJSON{
			Category: toCategoryResponse(b.Category),
			Total:    toMoneyJSON(b.Total),
			Pct:      b.Status.Pct,
			State:    string(b.Status.State),
			Excess:   toMoneyJSON(b.Status.Excess),
		}
	}
	return dashboardJSON{
		Year:              v.Summary.Period.Year,
		Month:             v.Summary.Period.Month,
		Income:            toMoneyJSON(v.Summary.Income),
		Expenses:          toMoneyJSON(v.Summary.Expenses),
		Net:               toMoneyJSON(v.Summary.Net),
		OpeningBalance:    toMoneyJSON(v.Summary.OpeningBalance),
		ClosingBalance:    toMoneyJSON(v.Summary.ClosingBalance),
		Budgets:           budgets,
		PrevMonthExpenses: toMoneyJSON(v.PrevMonthExpenses),
		GrossHoldings:     toMoneyJSON(v.GrossHoldings),
		NetHoldings:       toMoneyJSON(v.NetHoldings),
		NetWorth:          toMoneyJSON(v.NetWorth),
		Alert:             v.Alert,
	}
}

// handleDashboard serves the month view. Defaults to the current month
// when no year/month parameters are given.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := ownerFromContext(r.Context())
	view, err := s.dashboard.View(r.Context(), owner, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, toDashboardJSON(view))
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	entry, err := s.admin.GetSystemConfig(r.Context(), services.AlertKey)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "", "is_active": false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   entry.Value,
		"is_active": entry.IsActive,
	})
}

func (s *Server) handleSetAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message  string `json:"message"`
		IsActive bool   `json:"is_active"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := storage.SystemConfigEntry{
		Key:      services.AlertKey,
		Value:    sanitizeInput(req.Message),
		IsActive: req.IsActive,
	}
	if err := s.admin.SetSystemConfig(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
