package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// RequestRepository handles persistence for service requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	Update(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	Count(ctx context.Context, filter RequestFilter) (int64, error)
}

// RequestFilter defines query params for request listing.
type RequestFilter struct {
	RequestedBy *string
	AssignedTo  *string
	Statuses    []domain.RequestStatus
	Limit       int
	Offset      int
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, service_name, requested_by, assigned_to, status,
        feedback, rating, payment_status, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO services (service_name, requested_by, assigned_to, status, feedback, rating, payment_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		req.ServiceName,
		req.RequestedBy,
		req.AssignedTo,
		req.Status,
		req.Feedback,
		req.Rating,
		req.PaymentStatus,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        UPDATE services
        SET service_name=$1, assigned_to=$2, status=$3, feedback=$4, rating=$5,
            payment_status=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		req.ServiceName,
		req.AssignedTo,
		req.Status,
		req.Feedback,
		req.Rating,
		req.PaymentStatus,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM services WHERE id=$1`

	var req domain.ServiceRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.ServiceName,
		&req.RequestedBy,
		&req.AssignedTo,
		&req.Status,
		&req.Feedback,
		&req.Rating,
		&req.PaymentStatus,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM services`
	clauses, args := filter.whereClauses()
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		var req domain.ServiceRequest
		if err := rows.Scan(
			&req.ID,
			&req.ServiceName,
			&req.RequestedBy,
			&req.AssignedTo,
			&req.Status,
			&req.Feedback,
			&req.Rating,
			&req.PaymentStatus,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *requestRepository) Count(ctx context.Context, filter RequestFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM services`
	clauses, args := filter.whereClauses()
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (f RequestFilter) whereClauses() ([]string, []any) {
	args := []any{}
	clauses := []string{}

	if f.RequestedBy != nil {
		args = append(args, *f.RequestedBy)
		clauses = append(clauses, fmt.Sprintf("requested_by=$%d", len(args)))
	}
	if f.AssignedTo != nil {
		args = append(args, *f.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, 0, len(f.Statuses))
		for _, status := range f.Statuses {
			args = append(args, status)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	return clauses, args
}
