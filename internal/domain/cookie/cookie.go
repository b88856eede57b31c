package cookie

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested cookie does not exist.
	ErrNotFound = errors.New("cookie not found")
	// ErrDuplicateName is returned when a cookie with the same name exists.
	ErrDuplicateName = errors.New("cookie name already exists")
)

// Category groups cookies on the menu.
type Category string

const (
	CategoryChocolate Category = "Chocolate"
	CategoryNutty     Category = "Nutty"
	CategoryCaramel   Category = "Caramel"
	CategoryFruity    Category = "Fruity"
	CategoryClassic   Category = "Classic"
)

// Valid reports whether c is one of the menu categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryChocolate, CategoryNutty, CategoryCaramel, CategoryFruity, CategoryClassic:
		return true
	}
	return false
}

// Cookie is a menu item. Name is the join key used by orders.
type Cookie struct {
	ID          int64
	Name        string
	Description string
	Ingredients string
	Category    Category
	Price       decimal.Decimal
	Weight      string
	Image       string
	CreatedAt   time.Time
}

// Filter narrows catalog listings.
type Filter struct {
	// Search matches name or description, case-insensitively.
	Search string
	Limit  int
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Cookie, error)
	GetByID(ctx context.Context, id int64) (*Cookie, error)
	GetByName(ctx context.Context, name string) (*Cookie, error)
	Create(ctx context.Context, c *Cookie) error
	Update(ctx context.Context, c *Cookie) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}
