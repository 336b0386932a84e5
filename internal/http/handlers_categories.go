package http

import (
	"net/http"

	"finanzas/internal/core"
)

type categoryRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsIncome bool   `json:"is_income"`
	Limit    string `json:"limit"` // decimal euros, empty or "0" means no limit
}

type categoryResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	IsIncome   bool    `json:"is_income"`
	LimitCents int64   `json:"limit_cents"`
	Limit      float64 `json:"limit"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:         c.ID,
		Name:       c.Name,
		Color:      c.Color,
		IsIncome:   c.IsIncome,
		LimitCents: c.Limit.Cents,
		Limit:      c.Limit.Euros(),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	list, err := s.categories.List(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	out := make([]categoryResponse, len(list))
	for i, c := range list {
		out[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := core.Money{}
	if req.Limit != "" {
		parsed, err := parseAmount(req.Limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit = parsed
	}

	c := core.Category{
		Owner:    ownerFromContext(r.Context()),
		Name:     sanitizeInput(req.Name),
		Color:    sanitizeInput(req.Color),
		IsIncome: req.IsIncome,
		Limit:    limit,
	}

	id, err := s.categories.Create(r.Context(), c)
	if err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}

	c.ID = id
	writeJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := ownerFromContext(r.Context())
	if err := s.categories.Delete(r.Context(), owner, id); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCategoryLimit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Limit string `json:"limit"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := core.Money{}
	if req.Limit != "" {
		parsed, err := parseAmount(req.Limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit = parsed
	}

	owner := ownerFromContext(r.Context())
	if err := s.categories.SetLimit(r.Context(), owner, id, limit); err != nil {
		writeError(w, statusForWriteError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
