package handler

import (
	"github.com/gorilla/mux"

	"github.com/Dan9191/loan-reminders/internal/config"
	"github.com/Dan9191/loan-reminders/internal/middleware"
)

// NewRouter wires every route. Everything except /health and /key-rate
// requires a bearer token.
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/key-rate", h.KeyRate).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/reminders", h.ListReminders).Methods("GET")
	authRouter.HandleFunc("/reminders/custom", h.CreateCustomReminder).Methods("POST")
	authRouter.HandleFunc("/reminders/custom/{id}", h.DeleteCustomReminder).Methods("DELETE")
	authRouter.HandleFunc("/reminders/{id}/paid", h.MarkPaid).Methods("POST")
	authRouter.HandleFunc("/reminders/{id}/paid", h.RevertPaid).Methods("DELETE")
	authRouter.HandleFunc("/loans/{id}/balance", h.LoanBalance).Methods("GET")
	authRouter.HandleFunc("/plan", h.Plan).Methods("GET")
	authRouter.HandleFunc("/patterns", h.Patterns).Methods("GET")

	return r
}
