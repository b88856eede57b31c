package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/great-cookie/db"
	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/storage/memory"
)

func TestParseCookies_Embedded(t *testing.T) {
	cookies, err := ParseCookies(db.SeedCookies)
	require.NoError(t, err)
	require.Len(t, cookies, 6)

	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Red Velvet")
	assert.Equal(t, "150.00", cookies[0].Price.StringFixed(2))
}

func TestParseCookies_Invalid(t *testing.T) {
	for _, data := range []string{
		`{}`,
		`[{"name":"X","category":"Savory","price":"10"}]`,
		`[{"name":"X","category":"Classic","price":"0"}]`,
		`[{"name":"X","category":"Classic","price":"abc"}]`,
	} {
		_, err := ParseCookies([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestCookies_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCookies()
	cookies, err := ParseCookies(db.SeedCookies)
	require.NoError(t, err)

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	added, err := Cookies(ctx, store, cookies, now)
	require.NoError(t, err)
	assert.Equal(t, 6, added)

	added, err = Cookies(ctx, store, cookies, now)
	require.NoError(t, err)
	assert.Zero(t, added)

	first, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cookies[0].Name, first.Name)
	assert.Equal(t, now, first.CreatedAt)
}

func TestAPIKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAPIKeys()
	pepper := []byte("pepper")

	id, err := APIKey(ctx, store, pepper, "ops", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := APIKey(ctx, store, pepper, "ops-renamed", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	info, err := store.FindByHash(ctx, auth.HashKey(pepper, "s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "ops-renamed", info.Name)
	assert.Equal(t, []string{auth.ScopeAdmin}, info.Scopes)

	_, err = APIKey(ctx, store, pepper, "ops", "")
	assert.Error(t, err)
}
