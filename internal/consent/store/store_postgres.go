package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"physioflow/internal/consent/models"
)

// PostgresStore persists consent records in PostgreSQL. The record is stored
// as a single JSON document per client, preserving the wire layout and the
// single-key replacement semantics of the other backends.
type PostgresStore struct {
	db   *sql.DB
	opts options
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{
		db:   db,
		opts: applyOptions(opts),
	}
}

func (s *PostgresStore) Load(ctx context.Context, clientID string) (*models.Record, error) {
	query := `
		SELECT record
		FROM consent_records
		WHERE client_id = $1
	`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, clientID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load consent record: %w", err)
	}

	record, err := models.DecodeRecord(raw)
	if err != nil {
		// Best-effort removal; the record is reported absent either way.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM consent_records WHERE client_id = $1`, clientID)
		s.opts.recovered(ctx, clientID, err)
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, clientID string, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("consent record is required")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode consent record: %w", err)
	}
	query := `
		INSERT INTO consent_records (client_id, record, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (client_id) DO UPDATE
		SET record = EXCLUDED.record, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, clientID, raw); err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM consent_records WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("clear consent record: %w", err)
	}
	return nil
}
