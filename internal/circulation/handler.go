// internal/circulation/handler.go
package circulation

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

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID         int64  `json:"bookId"`
		CustomerID     int64  `json:"customerId"`
		CopiesToBorrow int    `json:"copiesToBorrow"`
		ContactNumber  string `json:"contactNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := h.service.Borrow(r.Context(), req.BookID, CustomerBorrower(req.CustomerID), req.CopiesToBorrow, req.ContactNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (h *Handler) HandleWalkInBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID         int64         `json:"bookId"`
		CustomerData   WalkInProfile `json:"customerData"`
		CopiesToBorrow int           `json:"copiesToBorrow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.WalkInBorrow(r.Context(), req.BookID, req.CustomerData, req.CopiesToBorrow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "loanId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid loan ID", http.StatusBadRequest)
		return
	}

	var req struct {
		BookID         int64     `json:"bookId"`
		Rating         int       `json:"rating"`
		CopiesBorrowed int       `json:"copiesBorrowed"`
		BookCondition  Condition `json:"bookCondition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := h.service.Return(r.Context(), loanID, req.BookID, req.Rating, req.CopiesBorrowed, req.BookCondition)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) HandleCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid customer ID", http.StatusBadRequest)
		return
	}

	loans, err := h.service.CustomerLoans(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (h *Handler) HandleAllLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.AllLoans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (h *Handler) HandleBorrowStatus(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	status, err := h.service.BorrowStatus(r.Context(), bookID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var insufficientErr InsufficientCopiesError
	var limitErr LimitExceededError
	var mismatchErr CopiesMismatchError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrLoanNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyReturned),
		errors.As(err, &insufficientErr),
		errors.As(err, &limitErr),
		errors.As(err, &mismatchErr):
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]string{"message": err.Error()})
}
