// internal/api/router.go
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"libralend/internal/catalog"
	"libralend/internal/circulation"
	"libralend/internal/favorites"
	"libralend/internal/membership"
	"libralend/internal/reporting"
)

// NewRouter wires every service onto a single chi router. All routes share
// one database pool; services do their own transaction management.
func NewRouter(db *sql.DB) http.Handler {
	catalogHandler := catalog.NewHandler(catalog.NewService(db))
	circulationHandler := circulation.NewHandler(circulation.NewService(db))
	membershipHandler := membership.NewHandler(membership.NewService(db))
	favoritesHandler := favorites.NewHandler(favorites.NewService(db))
	reportingHandler := reporting.NewHandler(reporting.NewService(db))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", catalogHandler.HandleList)
		r.Post("/", catalogHandler.HandleAdd)
		r.Get("/{id}", catalogHandler.HandleGet)
		r.Put("/{id}", catalogHandler.HandleUpdate)
		r.Delete("/{id}", catalogHandler.HandleDelete)
		r.Get("/{id}/status", circulationHandler.HandleBorrowStatus)
	})

	r.Post("/borrow", circulationHandler.HandleBorrow)
	r.Post("/walk-in-borrow", circulationHandler.HandleWalkInBorrow)
	r.Route("/loans", func(r chi.Router) {
		r.Get("/", circulationHandler.HandleAllLoans)
		r.Get("/{customerId}", circulationHandler.HandleCustomerLoans)
		r.Put("/return/{loanId}", circulationHandler.HandleReturn)
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Post("/add", favoritesHandler.HandleAdd)
		r.Post("/toggle", favoritesHandler.HandleToggle)
		r.Delete("/remove", favoritesHandler.HandleRemove)
		r.Get("/{customerId}", favoritesHandler.HandleList)
		r.Get("/{customerId}/ids", favoritesHandler.HandleBookIDs)
	})

	r.Post("/register", membershipHandler.HandleRegister)
	r.Post("/login", membershipHandler.HandleLogin)
	r.Get("/customers/{id}", membershipHandler.HandleGetCustomer)
	r.Route("/staff", func(r chi.Router) {
		r.Get("/", membershipHandler.HandleListStaff)
		r.Post("/", membershipHandler.HandleAddStaff)
		r.Put("/{staffId}", membershipHandler.HandleUpdateStaff)
		r.Delete("/{staffId}", membershipHandler.HandleDeleteStaff)
	})

	r.Get("/dashboard", reportingHandler.HandleDashboard)

	return r
}
