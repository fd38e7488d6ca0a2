package classification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/db"
)

// Repository stores classification mappings in Postgres. Exactly one row is
// active at a time.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new classification repository
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// LoadActive returns the active mapping, or nil when none has been stored.
func (r *Repository) LoadActive(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT version, mapping, updated_by, updated_at
		FROM classification_maps
		WHERE is_active
		ORDER BY version DESC
		LIMIT 1
	`

	var (
		version   int64
		payload   []byte
		updatedBy string
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, query).Scan(&version, &payload, &updatedBy, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mapping Mapping
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode mapping version %d: %w", version, err)
	}
	return NewSnapshot(version, mapping, updatedBy, updatedAt), nil
}

// Replace deactivates the current mapping and inserts mapping as active in a
// single transaction.
func (r *Repository) Replace(ctx context.Context, mapping Mapping, updatedBy string) (*Snapshot, error) {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping: %w", err)
	}

	var (
		version   int64
		updatedAt time.Time
	)
	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE classification_maps SET is_active = false WHERE is_active`); err != nil {
			return fmt.Errorf("failed to deactivate mapping: %w", err)
		}
		return tx.QueryRow(ctx, `
			INSERT INTO classification_maps (mapping, is_active, updated_by)
			VALUES ($1, true, $2)
			RETURNING version, updated_at
		`, payload, updatedBy).Scan(&version, &updatedAt)
	})
	if err != nil {
		return nil, err
	}

	return NewSnapshot(version, mapping, updatedBy, updatedAt), nil
}
