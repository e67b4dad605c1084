// Package client talks to the external finance REST API that owns users'
// expenses, deposits and budgets.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// ServiceName labels errors and metrics for the finance API.
const ServiceName = "finance-api"

const maxBodyBytes = 8 << 20

// statusError is a non-2xx answer from the finance API.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("finance API returned status %d", e.code)
}

// CountsAsSuccess tells the circuit breaker which failures are the caller's
// fault (4xx, rejected token) and must not trip it.
func CountsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
}

// FinanceClient fetches transactions and budgets with retry, circuit breaker,
// bulkhead and tracing. The caller's bearer token is forwarded from the
// request context.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewFinanceClient creates a new FinanceClient.
func NewFinanceClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *FinanceClient {
	return &FinanceClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		logger:     logger,
	}
}

// Name implements port.HealthChecker.
func (c *FinanceClient) Name() string { return ServiceName }

// Check reports the breaker state; an open breaker means the API is failing.
func (c *FinanceClient) Check(_ context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return &domain.ErrCircuitOpen{Service: ServiceName}
	}
	return nil
}

// get issues GET path?query and returns the body. found is false on 404.
func (c *FinanceClient) get(ctx context.Context, op, path string, query url.Values) (body []byte, found bool, err error) {
	ctx, span := tracer.Start(ctx, "FinanceClient.get")
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path), attribute.String("operation", op))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, false, &domain.ErrTimeout{Operation: op}
	}
	defer c.bulkhead.Release()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var token string
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		token = p.Token
	}

	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				found = false
				return nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return resilience.Permanent(&domain.ErrUnauthorized{Message: "finance API rejected the access token"})
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				return &statusError{code: resp.StatusCode}
			case resp.StatusCode < 200 || resp.StatusCode > 299:
				return resilience.Permanent(&statusError{code: resp.StatusCode})
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return err
			}
			body, found = data, true
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("finance API call failed",
			zap.String("operation", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, false, wrapError(op, err)
	}
	return body, found, nil
}

// missingList is the error for a 404 on a list endpoint. Lists always exist
// upstream, so a 404 points at a wrong base URL or path.
func missingList(path string) error {
	return &domain.ErrExternalService{
		Service: ServiceName,
		Err:     fmt.Errorf("%s: %w", path, &statusError{code: http.StatusNotFound}),
	}
}

func wrapError(op string, err error) error {
	var unauthorized *domain.ErrUnauthorized
	switch {
	case errors.As(err, &unauthorized):
		return unauthorized
	case resilience.IsOpen(err):
		return &domain.ErrCircuitOpen{Service: ServiceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: op}
	}
	return &domain.ErrExternalService{Service: ServiceName, Err: err}
}

func rangeQuery(r domain.DateRange) url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("from", r.From.String())
	}
	if !r.To.IsZero() {
		q.Set("to", r.To.String())
	}
	return q
}
