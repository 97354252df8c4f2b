package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zen-systems/voltgate/pkg/route"
)

// PostgresStore persists terminal job records in postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the DSN and runs the schema migration.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id              TEXT PRIMARY KEY,
			origin          TEXT NOT NULL,
			destination     TEXT NOT NULL,
			constraints     JSONB,
			status          TEXT NOT NULL,
			base_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			source          TEXT,
			final_route     JSONB,
			error           TEXT,
			enhancement     JSONB,
			created_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ
		)`)
	return err
}

// RecordJob upserts the terminal record.
func (s *PostgresStore) RecordJob(ctx context.Context, rec *Record) error {
	constraints, err := marshalNullable(rec.Constraints)
	if err != nil {
		return fmt.Errorf("marshal constraints: %w", err)
	}
	finalRoute, err := marshalNullable(rec.FinalRoute)
	if err != nil {
		return fmt.Errorf("marshal final route: %w", err)
	}
	enhancement, err := marshalNullable(rec.Enhancement)
	if err != nil {
		return fmt.Errorf("marshal enhancement: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (id, origin, destination, constraints, status, base_confidence,
			source, final_route, error, enhancement, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			base_confidence = EXCLUDED.base_confidence,
			source = EXCLUDED.source,
			final_route = EXCLUDED.final_route,
			error = EXCLUDED.error,
			enhancement = EXCLUDED.enhancement,
			completed_at = EXCLUDED.completed_at`,
		rec.ID, rec.Origin, rec.Destination, constraints, string(rec.Status), rec.BaseConfidence,
		nullable(rec.Source), finalRoute, nullable(rec.Error), enhancement, rec.CreatedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", rec.ID, err)
	}
	return nil
}

// GetJob loads a terminal record by id.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, origin, destination, constraints, status, base_confidence,
			source, final_route, error, enhancement, created_at, completed_at
		FROM jobs WHERE id = $1`, id)

	var (
		rec         Record
		status      string
		constraints []byte
		source      *string
		finalRoute  []byte
		errText     *string
		enhancement []byte
		completedAt *time.Time
	)
	err := row.Scan(&rec.ID, &rec.Origin, &rec.Destination, &constraints, &status, &rec.BaseConfidence,
		&source, &finalRoute, &errText, &enhancement, &rec.CreatedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}

	rec.Status = Status(status)
	rec.CompletedAt = completedAt
	if source != nil {
		rec.Source = *source
	}
	if errText != nil {
		rec.Error = *errText
	}
	if len(constraints) > 0 {
		if err := json.Unmarshal(constraints, &rec.Constraints); err != nil {
			return nil, fmt.Errorf("decode constraints for job %s: %w", id, err)
		}
	}
	if len(finalRoute) > 0 {
		rec.FinalRoute = &route.Candidate{}
		if err := json.Unmarshal(finalRoute, rec.FinalRoute); err != nil {
			return nil, fmt.Errorf("decode final route for job %s: %w", id, err)
		}
	}
	if len(enhancement) > 0 {
		rec.Enhancement = &Enhancement{}
		if err := json.Unmarshal(enhancement, rec.Enhancement); err != nil {
			return nil, fmt.Errorf("decode enhancement for job %s: %w", id, err)
		}
	}
	return &rec, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return nil, nil
		}
	case *route.Candidate:
		if val == nil {
			return nil, nil
		}
	case *Enhancement:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
