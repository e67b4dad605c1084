package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxReportBody = 64 << 10

// ============================================================
// Reports
// ============================================================

func createReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reports")
		defer span.End()

		var req domain.ReportRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		report, err := svc.Create(ctx, userID(r), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Location", "/v1/reports/"+report.ID)
		writeJSON(w, http.StatusCreated, report)
	}
}

func listReportsHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports")
		defer span.End()

		reports, err := svc.List(ctx, userID(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.ReportInfo]{Data: reports, Total: len(reports)})
	}
}

func getReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/{reportId}")
		defer span.End()

		report, err := svc.Get(ctx, userID(r), chi.URLParam(r, "reportId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func exportReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/{reportId}/export")
		defer span.End()

		file, err := svc.Export(ctx, userID(r), chi.URLParam(r, "reportId"), r.URL.Query().Get("format"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(file.Data); err != nil {
			logger.Warn("export write failed", zap.Error(err))
		}
	}
}
