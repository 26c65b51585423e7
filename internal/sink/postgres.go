package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const insertCheckQuery = `
	INSERT INTO band_name_checks
	  (checked_at, band_name, verdict, threshold, max_severity, response_time_ms, categories, override_rule)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`

// PostgresSink stores one row per record in band_name_checks.
type PostgresSink struct {
	db Execer
}

func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string {
	return "postgres"
}

func (s *PostgresSink) Write(ctx context.Context, record models.BatchRecord) error {
	categories, err := json.Marshal(record.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	maxSeverity := models.SeveritySafe
	for _, c := range record.Categories {
		if c.Severity > maxSeverity {
			maxSeverity = c.Severity
		}
	}

	tag, err := s.db.Exec(ctx, insertCheckQuery,
		record.Timestamp,
		record.Text,
		string(record.Verdict),
		int(record.Threshold),
		int(maxSeverity),
		record.ResponseTimeMs(),
		categories,
		record.Override,
	)
	if err != nil {
		return fmt.Errorf("insert check for %q: %w", record.Text, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("insert check for %q: expected 1 row, got %d", record.Text, tag.RowsAffected())
	}
	return nil
}
