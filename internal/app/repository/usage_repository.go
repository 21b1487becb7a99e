package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository performs the click-accounting write for permitted human
// redirects. The one-time variant must be a single conditional statement:
// two concurrent requests may both see has_been_used = false, and only the
// row guard decides which of them actually wins the link.
type UsageRepository interface {
	// Consume increments the click counter and, for one-time links, marks the
	// link used. It reports false when a one-time link was already claimed.
	Consume(ctx context.Context, code string, oneTime bool) (bool, error)
}

type usageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a pgx-backed UsageRepository.
func NewUsageRepository(pool *pgxpool.Pool) UsageRepository {
	return &usageRepository{pool: pool}
}

const consumeOneTimeSQL = `
UPDATE links
SET click_count = click_count + 1,
    has_been_used = TRUE,
    updated_at = now()
WHERE short_code = $1 AND NOT has_been_used`

const consumeSQL = `
UPDATE links
SET click_count = click_count + 1,
    updated_at = now()
WHERE short_code = $1`

func (r *usageRepository) Consume(ctx context.Context, code string, oneTime bool) (bool, error) {
	query := consumeSQL
	if oneTime {
		query = consumeOneTimeSQL
	}

	tag, err := r.pool.Exec(ctx, query, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
