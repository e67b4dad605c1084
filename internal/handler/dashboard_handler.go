package handler

import (
	"net/http"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard & summaries
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		asOf, err := dateParam(r, "asOf")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		months, err := intParam(r, "months", 0, 1, service.MaxTrendMonths)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		dashboard, err := svc.GetDashboard(ctx, userID(r), asOf, months)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	}
}

func summaryHandler(svc *service.DashboardService, kind domain.Kind, logger *zap.Logger) http.HandlerFunc {
	route := "GET /v1/" + string(kind) + "s/summary"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		from, err := dateParam(r, "from")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		to, err := dateParam(r, "to")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.GetSummary(ctx, userID(r), kind, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
