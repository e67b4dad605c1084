package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

func listBudgetUsageHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/usage")
		defer span.End()

		year, err := intParam(r, "year", time.Now().Year(), 1900, 9999)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		usage, err := svc.ListUsage(ctx, userID(r), year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.BudgetUsage]{Data: usage, Total: len(usage)})
	}
}

func budgetUsageHandler(svc *service.BudgetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/{year}/{month}/usage")
		defer span.End()

		year, err := pathInt(chi.URLParam(r, "year"), "year")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		month, err := pathInt(chi.URLParam(r, "month"), "month")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		usage, err := svc.GetUsage(ctx, userID(r), month, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, usage)
	}
}
