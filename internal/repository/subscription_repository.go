package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// SubscriptionRepository handles persistence for per-requester plan records.
type SubscriptionRepository interface {
	Get(ctx context.Context, userID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, sub *domain.Subscription) error
	ListByStatus(ctx context.Context, status domain.SubscriptionStatus) ([]domain.Subscription, error)
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository instantiates the repository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

const subscriptionColumns = `user_id, plan, remaining_requests, status,
        subscribed_date, prior_remaining, last_reset, updated_at`

func (r *subscriptionRepository) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1`

	var sub domain.Subscription
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.RemainingRequests,
		&sub.Status,
		&sub.SubscribedDate,
		&sub.PriorRemaining,
		&sub.LastReset,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	const query = `
        INSERT INTO subscriptions (user_id, plan, remaining_requests, status,
            subscribed_date, prior_remaining, last_reset)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (user_id) DO UPDATE
        SET plan=EXCLUDED.plan,
            remaining_requests=EXCLUDED.remaining_requests,
            status=EXCLUDED.status,
            subscribed_date=EXCLUDED.subscribed_date,
            prior_remaining=EXCLUDED.prior_remaining,
            last_reset=EXCLUDED.last_reset,
            updated_at=NOW()
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		sub.UserID,
		sub.Plan,
		sub.RemainingRequests,
		sub.Status,
		sub.SubscribedDate,
		sub.PriorRemaining,
		sub.LastReset,
	).Scan(&sub.UpdatedAt)
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status domain.SubscriptionStatus) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE status=$1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.UserID,
			&sub.Plan,
			&sub.RemainingRequests,
			&sub.Status,
			&sub.SubscribedDate,
			&sub.PriorRemaining,
			&sub.LastReset,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}
