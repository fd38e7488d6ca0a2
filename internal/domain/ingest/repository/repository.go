// Package repository persists normalized datasets. Only the newest dataset
// of each file type is kept.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/normalizer"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/db"
)

var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetRepository stores and retrieves the active dataset per file type.
type DatasetRepository interface {
	// Store replaces every dataset of ds.FileType with ds.
	Store(ctx context.Context, ds *normalizer.Dataset) error
	// FetchLatestActive returns the newest dataset of ft, or nil.
	FetchLatestActive(ctx context.Context, ft filetype.FileType) (*normalizer.Dataset, error)
	// Update rewrites the payload of an existing dataset.
	Update(ctx context.Context, ds *normalizer.Dataset) error
}

// ============================================================================
// Postgres
// ============================================================================

// PostgresDatasetRepository keeps datasets as JSONB payloads.
type PostgresDatasetRepository struct {
	db db.DBTX
}

// NewPostgresDatasetRepository creates a new dataset repository
func NewPostgresDatasetRepository(conn db.DBTX) *PostgresDatasetRepository {
	return &PostgresDatasetRepository{db: conn}
}

// Store deletes the previous datasets of the file type and inserts ds in one
// transaction.
func (r *PostgresDatasetRepository) Store(ctx context.Context, ds *normalizer.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM datasets WHERE file_type = $1`, string(ds.FileType)); err != nil {
			return fmt.Errorf("failed to delete previous datasets: %w", err)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO datasets (id, file_type, uploaded_by, fingerprint, row_count, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, ds.ID, string(ds.FileType), ds.UploadedBy, ds.Fingerprint, ds.RowCount, payload, ds.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}
		return nil
	})
}

// FetchLatestActive returns the newest dataset of ft, or nil when none exists.
func (r *PostgresDatasetRepository) FetchLatestActive(ctx context.Context, ft filetype.FileType) (*normalizer.Dataset, error) {
	query := `
		SELECT payload
		FROM datasets
		WHERE file_type = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.db.QueryRow(ctx, query, string(ft)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ds normalizer.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode %s dataset: %w", ft, err)
	}
	return &ds, nil
}

// Update rewrites the payload of ds in place.
func (r *PostgresDatasetRepository) Update(ctx context.Context, ds *normalizer.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	tag, err := r.db.Exec(ctx, `UPDATE datasets SET payload = $2 WHERE id = $1`, ds.ID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, ds.ID)
	}
	return nil
}

// ============================================================================
// In memory
// ============================================================================

// MemoryDatasetRepository keeps datasets in process. Values are copied on the
// way in and out so callers cannot mutate stored state.
type MemoryDatasetRepository struct {
	mu       sync.RWMutex
	datasets map[filetype.FileType][]byte
}

// NewMemoryDatasetRepository creates an empty in-memory repository.
func NewMemoryDatasetRepository() *MemoryDatasetRepository {
	return &MemoryDatasetRepository{datasets: make(map[filetype.FileType][]byte)}
}

func (m *MemoryDatasetRepository) Store(ctx context.Context, ds *normalizer.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	m.mu.Lock()
	m.datasets[ds.FileType] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryDatasetRepository) FetchLatestActive(ctx context.Context, ft filetype.FileType) (*normalizer.Dataset, error) {
	m.mu.RLock()
	payload, ok := m.datasets[ft]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var ds normalizer.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode %s dataset: %w", ft, err)
	}
	return &ds, nil
}

func (m *MemoryDatasetRepository) Update(ctx context.Context, ds *normalizer.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.datasets[ds.FileType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, ds.ID)
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(current, &head); err != nil || head.ID != ds.ID.String() {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, ds.ID)
	}
	m.datasets[ds.FileType] = payload
	return nil
}
