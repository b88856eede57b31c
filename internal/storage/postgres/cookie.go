package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/great-cookie/internal/domain/cookie"
)

const (
	cookieColumns = `id, name, description, ingredients, category, price, weight, image, created_at`

	listCookiesSQL = `SELECT ` + cookieColumns + ` FROM cookies
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY id LIMIT $2`

	getCookieByIDSQL   = `SELECT ` + cookieColumns + ` FROM cookies WHERE id = $1`
	getCookieByNameSQL = `SELECT ` + cookieColumns + ` FROM cookies WHERE name = $1`

	createCookieSQL = `INSERT INTO cookies (name, description, ingredients, category, price, weight, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	updateCookieSQL = `UPDATE cookies SET name = $2, description = $3, ingredients = $4, category = $5,
		price = $6, weight = $7, image = $8 WHERE id = $1`

	deleteCookieSQL = `DELETE FROM cookies WHERE id = $1`
	countCookiesSQL = `SELECT count(*) FROM cookies`
)

var _ cookie.Repository = (*CookieRepository)(nil)

// CookieRepository implements cookie.Repository backed by PostgreSQL.
type CookieRepository struct {
	pool *pgxpool.Pool
}

// NewCookieRepository returns a CookieRepository that uses the given pool.
func NewCookieRepository(pool *pgxpool.Pool) *CookieRepository {
	return &CookieRepository{pool: pool}
}

// List returns the menu ordered by id.
func (r *CookieRepository) List(ctx context.Context, f cookie.Filter) ([]cookie.Cookie, error) {
	rows, err := r.pool.Query(ctx, listCookiesSQL, f.Search, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing cookies: %w", err)
	}
	return pgx.CollectRows(rows, scanCookie)
}

// GetByID returns a single cookie by id.
func (r *CookieRepository) GetByID(ctx context.Context, id int64) (*cookie.Cookie, error) {
	return r.getOne(ctx, getCookieByIDSQL, id)
}

// GetByName returns the cookie with the exact name.
func (r *CookieRepository) GetByName(ctx context.Context, name string) (*cookie.Cookie, error) {
	return r.getOne(ctx, getCookieByNameSQL, name)
}

func (r *CookieRepository) getOne(ctx context.Context, query string, arg any) (*cookie.Cookie, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting cookie %v: %w", arg, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCookie)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cookie.ErrNotFound
		}
		return nil, fmt.Errorf("getting cookie %v: %w", arg, err)
	}
	return &c, nil
}

// Create inserts c and assigns its id.
func (r *CookieRepository) Create(ctx context.Context, c *cookie.Cookie) error {
	err := r.pool.QueryRow(ctx, createCookieSQL,
		c.Name, c.Description, c.Ingredients, string(c.Category), c.Price, c.Weight, c.Image, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return cookie.ErrDuplicateName
		}
		return fmt.Errorf("creating cookie %q: %w", c.Name, err)
	}
	return nil
}

// Update overwrites the stored cookie with c.
func (r *CookieRepository) Update(ctx context.Context, c *cookie.Cookie) error {
	tag, err := r.pool.Exec(ctx, updateCookieSQL,
		c.ID, c.Name, c.Description, c.Ingredients, string(c.Category), c.Price, c.Weight, c.Image,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return cookie.ErrDuplicateName
		}
		return fmt.Errorf("updating cookie %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cookie.ErrNotFound
	}
	return nil
}

// Delete removes the cookie.
func (r *CookieRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCookieSQL, id)
	if err != nil {
		return fmt.Errorf("deleting cookie %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cookie.ErrNotFound
	}
	return nil
}

// Count returns the number of cookies on the menu.
func (r *CookieRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countCookiesSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cookies: %w", err)
	}
	return n, nil
}

func scanCookie(row pgx.CollectableRow) (cookie.Cookie, error) {
	var (
		c        cookie.Cookie
		category string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Ingredients, &category,
		&c.Price, &c.Weight, &c.Image, &c.CreatedAt,
	)
	c.Category = cookie.Category(category)
	return c, err
}
