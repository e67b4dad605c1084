// Package store persists report snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("store")

// createdAtLayout is fixed width and always UTC so text order is time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportStore implements port.ReportStore on SQLite. The full report is kept
// as a JSON payload; the other columns serve listing and ownership checks.
type ReportStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates the database file if needed, migrates it and returns a store.
func Open(dbPath string, logger *zap.Logger) (*ReportStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("report store ready", zap.String("path", dbPath))
	return &ReportStore{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Name implements port.HealthChecker.
func (s *ReportStore) Name() string { return "report-store" }

// Check pings the database.
func (s *ReportStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts r.
func (s *ReportStore) Save(ctx context.Context, r *domain.Report) error {
	ctx, span := tracer.Start(ctx, "ReportStore.Save")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", r.ID))

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, name, period_from, period_to, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, r.From.String(), r.To.String(), string(payload),
		r.GeneratedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get returns the report id owned by userID. Reports of other users are
// reported as not found.
func (s *ReportStore) Get(ctx context.Context, userID, id string) (*domain.Report, error) {
	ctx, span := tracer.Start(ctx, "ReportStore.Get")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", id))

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "report", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	var r domain.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &r, nil
}

// List returns the user's reports, newest first.
func (s *ReportStore) List(ctx context.Context, userID string) ([]domain.ReportInfo, error) {
	ctx, span := tracer.Start(ctx, "ReportStore.List")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, period_from, period_to, created_at
		 FROM reports WHERE user_id = ?
		 ORDER BY created_at DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ReportInfo, 0)
	for rows.Next() {
		var id, name, from, to, created string
		if err := rows.Scan(&id, &name, &from, &to, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}

		info := domain.ReportInfo{ID: id, Name: name}
		info.From, _ = domain.ParseDate(from)
		info.To, _ = domain.ParseDate(to)
		if info.GeneratedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			s.logger.Warn("report with unreadable created_at", zap.String("report_id", id), zap.Error(err))
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
