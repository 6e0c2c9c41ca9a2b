package api

import (
	"encoding/json"
	"net/http"

	"widget-dashboard/auth"
	"widget-dashboard/userstore"
)

type filterRequest struct {
	Genres *string `json:"genres" validate:"required"`
	Year   *string `json:"year" validate:"required"`
}

func (h *handler) getFilter(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	u, err := h.store.User(r.Context(), email)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if u.Filter == nil {
		http.Error(w, "no filter saved", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u.Filter)
}

func (h *handler) saveFilter(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	f := userstore.Filter{Genres: *req.Genres, Year: *req.Year}
	if err := h.store.SaveFilter(r.Context(), email, f); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
