package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/great-cookie/internal/domain/order"
)

const (
	orderColumns = `id, customer_name, contact, cookie_name, quantity, notes, delivery_address,
		total_price, payment_method, delivery_date, order_source, status, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (customer_name, contact, cookie_name, quantity, notes, delivery_address,
		total_price, payment_method, delivery_date, order_source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`

	getOrderSQL          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderForUpdateSQL = getOrderSQL + ` FOR UPDATE`

	updateOrderSQL = `UPDATE orders SET cookie_name = $2, quantity = $3, notes = $4, delivery_address = $5,
		total_price = $6, payment_method = $7, delivery_date = $8, status = $9, updated_at = $10
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and assigns its id.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx, createOrderSQL,
		o.CustomerName, o.Contact, o.CookieName, o.Quantity, o.Notes, o.DeliveryAddress,
		nullDecimal(o.TotalPrice), o.PaymentMethod, o.DeliveryDate,
		string(o.Source), string(o.Status), o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// Get returns a single order.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	return getOrder(ctx, r.pool, getOrderSQL, id)
}

// List returns orders matching f in a single snapshot.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	where, args := orderWhere(f)
	dir := "ASC"
	if f.Newest {
		dir = "DESC"
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY id ` + dir

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Count returns the number of orders matching f.
func (r *OrderRepository) Count(ctx context.Context, f order.Filter) (int, error) {
	where, args := orderWhere(f)
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// Update locks the row, applies fn and writes the result in one transaction.
func (r *OrderRepository) Update(ctx context.Context, id int64, fn func(o *order.Order) error) (*order.Order, error) {
	var out *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := getOrder(ctx, tx, getOrderForUpdateSQL, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, updateOrderSQL,
			o.ID, o.CookieName, o.Quantity, o.Notes, o.DeliveryAddress,
			nullDecimal(o.TotalPrice), o.PaymentMethod, o.DeliveryDate,
			string(o.Status), o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("updating order %d: %w", id, err)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getOrder(ctx context.Context, q querier, query string, id int64) (*order.Order, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

func orderWhere(f order.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		total          decimal.NullDecimal
		source, status string
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.Contact, &o.CookieName, &o.Quantity, &o.Notes, &o.DeliveryAddress,
		&total, &o.PaymentMethod, &o.DeliveryDate, &source, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if total.Valid {
		o.TotalPrice = &total.Decimal
	}
	o.Source = order.Source(source)
	o.Status = order.Status(status)
	return o, err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
