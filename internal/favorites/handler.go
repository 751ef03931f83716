// internal/favorites/handler.go
package favorites

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	customerID, bookID, ok := decodePair(w, r)
	if !ok {
		return
	}

	fav, err := h.service.Add(r.Context(), customerID, bookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	customerID, bookID, ok := decodePair(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), customerID, bookID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite removed"})
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int64 `json:"customerId"`
		BookID     int64 `json:"bookId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	favorited, err := h.service.Toggle(r.Context(), req.CustomerID, req.BookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid customer ID", http.StatusBadRequest)
		return
	}

	favorites, err := h.service.ListForCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if favorites == nil {
		favorites = []*FavoriteBook{}
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (h *Handler) HandleBookIDs(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid customer ID", http.StatusBadRequest)
		return
	}

	ids, err := h.service.BookIDs(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func decodePair(w http.ResponseWriter, r *http.Request) (customerID, bookID int64, ok bool) {
	var req struct {
		CustomerID int64 `json:"customerId"`
		BookID     int64 `json:"bookId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return req.CustomerID, req.BookID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyFavorited):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"message": err.Error()})
}
