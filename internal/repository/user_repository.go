package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// UserRepository defines persistence access for all account kinds.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	// AdjustCounters applies advisory deltas to a provider's load counters.
	// active_requests never drops below zero.
	AdjustCounters(ctx context.Context, id string, activeDelta, completedDelta int) error
}

// UserFilter defines equality predicates for user listing. Each location
// field matches its own level of the geographic hierarchy.
type UserFilter struct {
	Role         *domain.Role
	SubDistrict  *string
	District     *string
	City         *string
	State        *string
	Availability *domain.Availability
	GovIDStatus  *domain.GovIDStatus
	Limit        int
	Offset       int
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, role, phone, address,
        sub_district, district, city, state, service, availability, rating,
        completed_jobs, active_requests, signup_date, gov_id_url, gov_id_status,
        website, latitude, longitude, source, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, username, password_hash, role, phone, address,
            sub_district, district, city, state, service, availability, rating,
            completed_jobs, active_requests, signup_date, gov_id_url, gov_id_status,
            website, latitude, longitude, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Address,
		user.SubDistrict,
		user.District,
		user.City,
		user.State,
		user.Service,
		user.Availability,
		user.Rating,
		user.CompletedJobs,
		user.ActiveRequests,
		user.SignupDate,
		user.GovIDURL,
		user.GovIDStatus,
		user.Website,
		user.Latitude,
		user.Longitude,
		user.Source,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, username=$2, password_hash=$3, role=$4, phone=$5,
            address=$6, sub_district=$7, district=$8, city=$9, state=$10, service=$11,
            availability=$12, rating=$13, completed_jobs=$14, active_requests=$15,
            gov_id_url=$16, gov_id_status=$17, website=$18, latitude=$19, longitude=$20,
            updated_at=NOW()
        WHERE id=$21`

	cmd, err := r.pool.Exec(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Address,
		user.SubDistrict,
		user.District,
		user.City,
		user.State,
		user.Service,
		user.Availability,
		user.Rating,
		user.CompletedJobs,
		user.ActiveRequests,
		user.GovIDURL,
		user.GovIDStatus,
		user.Website,
		user.Latitude,
		user.Longitude,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
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

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM users`
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

func (r *userRepository) AdjustCounters(ctx context.Context, id string, activeDelta, completedDelta int) error {
	const query = `
        UPDATE users
        SET active_requests = GREATEST(active_requests + $1, 0),
            completed_jobs = GREATEST(completed_jobs + $2, 0),
            updated_at = NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, activeDelta, completedDelta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (f UserFilter) whereClauses() ([]string, []any) {
	args := []any{}
	clauses := []string{}

	if f.Role != nil {
		args = append(args, *f.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if f.SubDistrict != nil {
		args = append(args, *f.SubDistrict)
		clauses = append(clauses, fmt.Sprintf("sub_district=$%d", len(args)))
	}
	if f.District != nil {
		args = append(args, *f.District)
		clauses = append(clauses, fmt.Sprintf("district=$%d", len(args)))
	}
	if f.City != nil {
		args = append(args, *f.City)
		clauses = append(clauses, fmt.Sprintf("city=$%d", len(args)))
	}
	if f.State != nil {
		args = append(args, *f.State)
		clauses = append(clauses, fmt.Sprintf("state=$%d", len(args)))
	}
	if f.Availability != nil {
		args = append(args, *f.Availability)
		clauses = append(clauses, fmt.Sprintf("availability=$%d", len(args)))
	}
	if f.GovIDStatus != nil {
		args = append(args, *f.GovIDStatus)
		clauses = append(clauses, fmt.Sprintf("gov_id_status=$%d", len(args)))
	}
	return clauses, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanOne(row rowScanner) (*domain.User, error) {
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Phone,
		&user.Address,
		&user.SubDistrict,
		&user.District,
		&user.City,
		&user.State,
		&user.Service,
		&user.Availability,
		&user.Rating,
		&user.CompletedJobs,
		&user.ActiveRequests,
		&user.SignupDate,
		&user.GovIDURL,
		&user.GovIDStatus,
		&user.Website,
		&user.Latitude,
		&user.Longitude,
		&user.Source,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
