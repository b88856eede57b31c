package cookie

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/great-cookie/internal/domain/auth"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ValidationError reports a rejected cookie field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Draft holds the fields of a new cookie.
type Draft struct {
	Name        string
	Description string
	Ingredients string
	Category    Category
	Price       decimal.Decimal
	Weight      string
	Image       string
}

// Patch holds optional cookie changes. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Ingredients *string
	Category    *Category
	Price       *decimal.Decimal
	Weight      *string
	Image       *string
}

// Service implements menu browsing and admin catalog management.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a catalog Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the menu, optionally filtered by a search term.
func (s *Service) List(ctx context.Context, f Filter) ([]Cookie, error) {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)

	cookies, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list cookies")
	}
	return cookies, nil
}

// Create adds a cookie to the menu.
func (s *Service) Create(ctx context.Context, d Draft) (*Cookie, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}

	c := &Cookie{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Ingredients: strings.TrimSpace(d.Ingredients),
		Category:    d.Category,
		Price:       d.Price,
		Weight:      strings.TrimSpace(d.Weight),
		Image:       strings.TrimSpace(d.Image),
		CreatedAt:   s.now(),
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cookie")
	}
	return c, nil
}

// Update applies p to the cookie with the given id.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (*Cookie, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get cookie %d", id)
	}

	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Ingredients != nil {
		c.Ingredients = strings.TrimSpace(*p.Ingredients)
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Weight != nil {
		c.Weight = strings.TrimSpace(*p.Weight)
	}
	if p.Image != nil {
		c.Image = strings.TrimSpace(*p.Image)
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrapf(err, "update cookie %d", id)
	}
	return c, nil
}

// Delete removes a cookie from the menu. Orders keep referencing it by name.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := auth.Require(ctx); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete cookie %d", id)
	}
	return nil
}

func validate(c *Cookie) error {
	switch {
	case c.Name == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case !c.Category.Valid():
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", c.Category)}
	case !c.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return nil
}
