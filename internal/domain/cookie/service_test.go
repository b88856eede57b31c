package cookie

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/great-cookie/internal/domain/auth"
)

// --- Mock implementations ---

type mockCookieRepo struct {
	nextID  int64
	cookies []Cookie
	lastF   Filter
}

func (m *mockCookieRepo) List(_ context.Context, f Filter) ([]Cookie, error) {
	m.lastF = f
	var out []Cookie
	for _, c := range m.cookies {
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCookieRepo) GetByID(_ context.Context, id int64) (*Cookie, error) {
	for _, c := range m.cookies {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCookieRepo) GetByName(_ context.Context, name string) (*Cookie, error) {
	for _, c := range m.cookies {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCookieRepo) Create(_ context.Context, c *Cookie) error {
	for _, existing := range m.cookies {
		if existing.Name == c.Name {
			return ErrDuplicateName
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.cookies = append(m.cookies, *c)
	return nil
}

func (m *mockCookieRepo) Update(_ context.Context, c *Cookie) error {
	for i := range m.cookies {
		if m.cookies[i].ID == c.ID {
			m.cookies[i] = *c
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockCookieRepo) Delete(_ context.Context, id int64) error {
	for i := range m.cookies {
		if m.cookies[i].ID == id {
			m.cookies = append(m.cookies[:i], m.cookies[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockCookieRepo) Count(context.Context) (int, error) {
	return len(m.cookies), nil
}

func adminCtx() context.Context {
	return auth.WithSession(context.Background(), auth.Session{
		KeyID:  "test",
		Scopes: []string{auth.ScopeAdmin},
	})
}

func validDraft(name string) Draft {
	return Draft{
		Name:     name,
		Category: CategoryChocolate,
		Price:    decimal.RequireFromString("155.00"),
	}
}

// --- Tests ---

func TestList_Limits(t *testing.T) {
	repo := &mockCookieRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), Filter{Search: "  velvet "})
	require.NoError(t, err)
	assert.Equal(t, "velvet", repo.lastF.Search)
	assert.Equal(t, defaultListLimit, repo.lastF.Limit)

	_, err = svc.List(context.Background(), Filter{Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, maxListLimit, repo.lastF.Limit)
}

func TestCreate(t *testing.T) {
	repo := &mockCookieRepo{}
	svc := NewService(repo)

	c, err := svc.Create(adminCtx(), validDraft(" Red Velvet "))
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Red Velvet", c.Name)

	_, err = svc.Create(adminCtx(), validDraft("Red Velvet"))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreate_RequiresSession(t *testing.T) {
	svc := NewService(&mockCookieRepo{})

	_, err := svc.Create(context.Background(), validDraft("Red Velvet"))
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(d *Draft)
		field string
	}{
		{"blank name", func(d *Draft) { d.Name = " " }, "name"},
		{"unknown category", func(d *Draft) { d.Category = "Savory" }, "category"},
		{"zero price", func(d *Draft) { d.Price = decimal.Zero }, "price"},
		{"negative price", func(d *Draft) { d.Price = decimal.NewFromInt(-1) }, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft("Funfetti")
			tt.edit(&d)

			_, err := NewService(&mockCookieRepo{}).Create(adminCtx(), d)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdate_Partial(t *testing.T) {
	repo := &mockCookieRepo{}
	svc := NewService(repo)
	c, err := svc.Create(adminCtx(), validDraft("Alcapone"))
	require.NoError(t, err)

	price := decimal.RequireFromString("160.00")
	updated, err := svc.Update(adminCtx(), c.ID, Patch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Alcapone", updated.Name)
	assert.True(t, price.Equal(updated.Price))

	_, err = svc.Update(adminCtx(), 99, Patch{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := &mockCookieRepo{}
	svc := NewService(repo)
	c, err := svc.Create(adminCtx(), validDraft("Alcapone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(adminCtx(), c.ID))
	assert.ErrorIs(t, svc.Delete(adminCtx(), c.ID), ErrNotFound)
}
