package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/scene-finder/internal/model"
)

// ErrNotFound is returned when a call record doesn't exist.
var ErrNotFound = errors.New("identification call not found")

// CallRepository persists the identification call log.
// Callers depend on the interface, so tests can swap in an in-memory fake.
type CallRepository interface {
	Create(ctx context.Context, call *model.IdentificationCall) error
	GetByID(ctx context.Context, id int64) (*model.IdentificationCall, error)
	ListRecent(ctx context.Context, limit int) ([]model.IdentificationCall, error)
	Stats(ctx context.Context) (*model.CallStats, error)
	CountByProvider(ctx context.Context, provider string) (int64, error)
}

type sqliteCallRepository struct {
	db *sqlx.DB
}

// NewCallRepository creates a new SQLite-backed CallRepository.
func NewCallRepository(db *sqlx.DB) CallRepository {
	return &sqliteCallRepository{db: db}
}

func (r *sqliteCallRepository) Create(ctx context.Context, call *model.IdentificationCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO identification_calls (provider, model, image_count, success, is_movie, duration_ms, error_message)
		VALUES (:provider, :model, :image_count, :success, :is_movie, :duration_ms, :error_message)
	`, call)
	if err != nil {
		return fmt.Errorf("creating identification call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteCallRepository) GetByID(ctx context.Context, id int64) (*model.IdentificationCall, error) {
	var call model.IdentificationCall
	err := r.db.GetContext(ctx, &call, "SELECT * FROM identification_calls WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting identification call %d: %w", id, err)
	}
	return &call, nil
}

func (r *sqliteCallRepository) ListRecent(ctx context.Context, limit int) ([]model.IdentificationCall, error) {
	var calls []model.IdentificationCall
	err := r.db.SelectContext(ctx, &calls,
		"SELECT * FROM identification_calls ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing identification calls: %w", err)
	}
	return calls, nil
}

func (r *sqliteCallRepository) Stats(ctx context.Context) (*model.CallStats, error) {
	var stats model.CallStats
	// COALESCE keeps the sums at 0 on an empty table instead of NULL.
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS succeeded,
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failed,
			COALESCE(SUM(CASE WHEN is_movie THEN 1 ELSE 0 END), 0) AS identified
		FROM identification_calls
	`)
	if err != nil {
		return nil, fmt.Errorf("computing call stats: %w", err)
	}
	return &stats, nil
}

func (r *sqliteCallRepository) CountByProvider(ctx context.Context, provider string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM identification_calls WHERE provider = ?", provider)
	if err != nil {
		return 0, fmt.Errorf("counting calls for %s: %w", provider, err)
	}
	return count, nil
}
