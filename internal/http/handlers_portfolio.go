package http

import (
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/pricing"
)

type holdingRequest struct {
	ItemName  string `json:"item_name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"` // decimal euros, optional
}

type holdingResponse struct {
	ID             int64   `json:"id"`
	ItemName       string  `json:"item_name"`
	Quantity       int64   `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	UnitPrice      float64 `json:"unit_price"`
	NetValueCents  int64   `json:"net_value_cents"`
	NetValue       float64 `json:"net_value"`
}

func toHoldingResponse(h core.HoldingsItem) holdingResponse {
	net := core.ItemNetValue(h)
	return holdingResponse{
		ID:             h.ID,
		ItemName:       h.ItemName,
		Quantity:       h.Quantity,
		UnitPriceCents: h.UnitPrice.Cents,
		UnitPrice:      h.UnitPrice.Euros(),
		NetValueCents:  net.Cents,
		NetValue:       net.Euros(),
	}
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	list, err := s.portfolio.List(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list holdings")
		return
	}

	out := make([]holdingResponse, len(list))
	for i, h := range list {
		out[i] = toHoldingResponse(h)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price := core.Money{}
	if req.UnitPrice != "" {
		parsed, err := parseAmount(req.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		price = parsed
	}

	h := core.HoldingsItem{
		Owner:     ownerFromContext(r.Context()),
		ItemName:  sanitizeInput(req.ItemName),
		Quantity:  req.Quantity,
		UnitPrice: price,
	}

	id, err := s.portfolio.Create(r.Context(), h)
	if err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}

	h.ID = id
	writeJSON(w, http.StatusCreated, toHoldingResponse(h))
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := ownerFromContext(r.Context())
	if err := s.portfolio.Delete(r.Context(), owner, id); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshHoldings queues a marketplace price refresh for every
// holding the caller has. The refreshes run in the worker; this returns as
// soon as they are queued.
func (s *Server) handleRefreshHoldings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	queued, err := s.portfolio.RequestRefresh(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "price refresh unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

// handleMarketPrice proxies a single marketplace price lookup so the
// frontend never talks to the marketplace directly.
func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	if s.prices == nil {
		writeError(w, http.StatusServiceUnavailable, "price lookup unavailable")
		return
	}

	quote, err := s.prices.Fetch(r.Context(), name)
	if err != nil {
		if errors.Is(err, pricing.ErrNoListing) {
			writeError(w, http.StatusNotFound, "no price listed for item")
			return
		}
		writeError(w, http.StatusBadGateway, "price lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"item_name":          name,
		"lowest_price_cents": quote.Lowest.Cents,
		"lowest_price":       quote.Lowest.Euros(),
		"median_price_cents": quote.Median.Cents,
		"median_price":       quote.Median.Euros(),
	})
}
