package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/export"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxReportMonths bounds the calendar months a report may span.
const MaxReportMonths = 24

// ReportService creates and serves report snapshots.
type ReportService struct {
	transactions port.TransactionSource
	store        port.ReportStore
	cache        port.Cache[*domain.Report]
	metrics      *observability.Metrics
	logger       *zap.Logger
	validate     *validator.Validate
	now          func() time.Time
}

func NewReportService(
	transactions port.TransactionSource,
	store port.ReportStore,
	cache port.Cache[*domain.Report],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		transactions: transactions,
		store:        store,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		now:          time.Now,
	}
}

// Create aggregates the user's transactions over the requested range and
// stores the result.
func (s *ReportService) Create(ctx context.Context, userID string, req domain.ReportRequest) (*domain.Report, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	from, _ := domain.ParseDate(req.From)
	to, _ := domain.ParseDate(req.To)
	if from.After(to) {
		return nil, &domain.ErrValidation{Field: "to", Message: "must not be before from"}
	}
	if aggregate.MonthsBetween(from, to) > MaxReportMonths {
		return nil, &domain.ErrValidation{Field: "to", Message: fmt.Sprintf("range spans more than %d months", MaxReportMonths)}
	}

	window := domain.DateRange{From: from, To: to}
	var expenses, deposits []domain.Transaction

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.transactions.ListExpenses(gCtx, userID, window)
		if err != nil {
			return fmt.Errorf("expense fetch: %w", err)
		}
		recordMalformed(s.metrics, s.logger, userID, domain.KindExpense, txs)
		expenses = txs
		return nil
	})
	g.Go(func() error {
		txs, err := s.transactions.ListDeposits(gCtx, userID, window)
		if err != nil {
			return fmt.Errorf("deposit fetch: %w", err)
		}
		recordMalformed(s.metrics, s.logger, userID, domain.KindDeposit, txs)
		deposits = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("finance-api")
		s.logger.Error("report fetch failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	r := aggregate.BuildReport(aggregate.ReportInput{
		Expenses: expenses,
		Deposits: deposits,
		From:     from,
		To:       to,
	})
	r.ID = uuid.NewString()
	r.UserID = userID
	r.Name = req.Name
	r.GeneratedAt = s.now().UTC()

	if err := s.store.Save(ctx, &r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.metrics.IncrReportCreated()
	s.cache.Set(reportCacheKey(userID, r.ID), &r)

	s.logger.Info("report created",
		zap.String("user_id", userID),
		zap.String("report_id", r.ID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	return &r, nil
}

// Get returns one of the user's reports.
func (s *ReportService) Get(ctx context.Context, userID, id string) (*domain.Report, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrValidation{Field: "reportId", Message: "must be a UUID"}
	}

	key := reportCacheKey(userID, id)
	if r, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("report")
		return r, nil
	}
	s.metrics.IncrCacheMiss("report")

	r, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, r)
	return r, nil
}

// List returns the user's reports, newest first.
func (s *ReportService) List(ctx context.Context, userID string) ([]domain.ReportInfo, error) {
	ctx, span := tracer.Start(ctx, "ReportService.List")
	defer span.End()

	return s.store.List(ctx, userID)
}

// ExportFile is a rendered report.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export renders one of the user's reports as csv or xlsx.
func (s *ReportService) Export(ctx context.Context, userID, id, format string) (*ExportFile, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Export")
	defer span.End()

	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("export.format", string(f)))

	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, r); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &ExportFile{
		Name:        fmt.Sprintf("report-%s.%s", r.ID, f),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func reportCacheKey(userID, id string) string {
	return "report:" + userID + ":" + id
}

// validationError converts the first validator failure to ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "max":
		msg = "must be at most " + fe.Param() + " characters"
	case "datetime":
		msg = "must be a date in YYYY-MM-DD format"
	default:
		msg = "failed " + fe.Tag() + " validation"
	}
	return &domain.ErrValidation{Field: field, Message: msg}
}
