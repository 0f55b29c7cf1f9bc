// Package http exposes the engines as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
)

type Server struct {
	http.Server
	ledger       *services.LedgerService
	recurring    *services.RecurringService
	installments *services.InstallmentService
	cards        *services.CreditCardService
	budgets      *services.BudgetService
	backup       *services.BackupService
}

// NewServer wires routes over the services, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, recurring *services.RecurringService,
	installments *services.InstallmentService, cards *services.CreditCardService,
	budgets *services.BudgetService, backup *services.BackupService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		ledger:       ledger,
		recurring:    recurring,
		installments: installments,
		cards:        cards,
		budgets:      budgets,
		backup:       backup,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withLogging(h))
	}

	route("POST /api/v1/accounts", s.handleCreateAccount)
	route("GET /api/v1/accounts", s.handleListAccounts)
	route("GET /api/v1/accounts/{id}", s.handleGetAccount)
	route("PUT /api/v1/accounts/{id}", s.handleUpdateAccount)
	route("DELETE /api/v1/accounts/{id}", s.handleDeleteAccount)
	route("GET /api/v1/accounts/{id}/balance", s.handleAccountBalance)

	route("POST /api/v1/categories", s.handleCreateCategory)
	route("GET /api/v1/categories", s.handleListCategories)
	route("GET /api/v1/categories/{id}", s.handleGetCategory)
	route("PUT /api/v1/categories/{id}", s.handleUpdateCategory)
	route("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	route("POST /api/v1/transactions", s.handleCreateTransaction)
	route("GET /api/v1/transactions", s.handleListTransactions)
	route("GET /api/v1/transactions/{id}", s.handleGetTransaction)
	route("PUT /api/v1/transactions/{id}", s.handleUpdateTransaction)
	route("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)

	route("GET /api/v1/balances", s.handleListBalances)
	route("GET /api/v1/net-worth", s.handleNetWorth)
	route("GET /api/v1/summary", s.handleSummary)
	route("GET /api/v1/summary/categories", s.handleCategorySpending)
	route("GET /api/v1/summary/daily", s.handleDailySummaries)

	route("POST /api/v1/recurring", s.handleCreateRecurring)
	route("GET /api/v1/recurring", s.handleListRecurring)
	route("GET /api/v1/recurring/upcoming", s.handleUpcomingRecurring)
	route("GET /api/v1/recurring/{id}", s.handleGetRecurring)
	route("PUT /api/v1/recurring/{id}", s.handleUpdateRecurring)
	route("DELETE /api/v1/recurring/{id}", s.handleDeleteRecurring)
	route("POST /api/v1/recurring/{id}/execute", s.handleExecuteRecurring)
	route("POST /api/v1/recurring/{id}/skip", s.handleSkipRecurring)
	route("POST /api/v1/recurring/{id}/toggle", s.handleToggleRecurring)

	route("POST /api/v1/installments", s.handleCreatePlan)
	route("GET /api/v1/installments", s.handleListPlans)
	route("GET /api/v1/installments/upcoming", s.handleUpcomingInstallments)
	route("GET /api/v1/installments/{id}", s.handleGetPlan)
	route("DELETE /api/v1/installments/{id}", s.handleDeletePlan)
	route("POST /api/v1/installments/{id}/pay", s.handlePayInstallment)
	route("POST /api/v1/installments/{id}/cancel", s.handleCancelPlan)

	route("POST /api/v1/credit-cards", s.handleCreateCardSettings)
	route("GET /api/v1/credit-cards", s.handleListCardSettings)
	route("GET /api/v1/credit-cards/{id}", s.handleGetCardSettings)
	route("PUT /api/v1/credit-cards/{id}", s.handleUpdateCardSettings)
	route("DELETE /api/v1/credit-cards/{id}", s.handleDeleteCardSettings)
	route("GET /api/v1/credit-cards/{id}/overview", s.handleCardOverview)
	route("GET /api/v1/credit-cards/{id}/transactions", s.handleCycleTransactions)
	route("GET /api/v1/credit-cards/{id}/statements", s.handleListStatements)
	route("POST /api/v1/credit-cards/{id}/statements", s.handleGenerateStatement)
	route("POST /api/v1/credit-cards/{id}/settle", s.handleSettle)
	route("GET /api/v1/statements/{id}", s.handleGetStatement)

	route("POST /api/v1/budgets", s.handleCreateBudget)
	route("GET /api/v1/budgets", s.handleListBudgets)
	route("GET /api/v1/budgets/statuses", s.handleBudgetStatuses)
	route("GET /api/v1/budgets/{id}", s.handleGetBudget)
	route("GET /api/v1/budgets/{id}/status", s.handleBudgetStatus)
	route("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	route("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)

	route("GET /api/v1/backup", s.handleExport)
	route("POST /api/v1/backup/restore", s.handleRestore)
	route("POST /api/v1/backup/clear", s.handleClear)

	return s
}

// withLogging tags each request with an ID and logs start and completion.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
