package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/great-cookie/internal/domain/review"
)

const (
	reviewColumns = `id, customer_name, rating, comment, approved, created_at`

	createReviewSQL = `INSERT INTO reviews (customer_name, rating, comment, approved, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	approveReviewSQL = `UPDATE reviews SET approved = TRUE WHERE id = $1 RETURNING ` + reviewColumns
	deleteReviewSQL  = `DELETE FROM reviews WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	err := r.pool.QueryRow(ctx, createReviewSQL,
		rv.CustomerName, rv.Rating, rv.Comment, rv.Approved, rv.CreatedAt,
	).Scan(&rv.ID)
	if err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) List(ctx context.Context, f review.Filter) ([]review.Review, error) {
	where, args := reviewWhere(f)
	query := `SELECT ` + reviewColumns + ` FROM reviews` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return pgx.CollectRows(rows, scanReview)
}

func (r *ReviewRepository) Approve(ctx context.Context, id int64) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, approveReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("approving review %d: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("approving review %d: %w", id, err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return fmt.Errorf("deleting review %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Count(ctx context.Context, f review.Filter) (int, error) {
	where, args := reviewWhere(f)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reviews`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

func reviewWhere(f review.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Approved != nil {
		args = append(args, *f.Approved)
		conds = append(conds, fmt.Sprintf("approved = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.CustomerName, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt)
	return rv, err
}
