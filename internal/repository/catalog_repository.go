package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// CatalogRepository handles the admin-curated service catalog.
type CatalogRepository interface {
	List(ctx context.Context) ([]domain.CatalogEntry, error)
	Create(ctx context.Context, entry *domain.CatalogEntry) error
	Delete(ctx context.Context, id string) error
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository instantiates the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	const query = `SELECT id, name, created_at FROM available_services ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CatalogEntry
	for rows.Next() {
		var entry domain.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *catalogRepository) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	const query = `
        INSERT INTO available_services (name)
        VALUES ($1)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query, entry.Name).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *catalogRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM available_services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
