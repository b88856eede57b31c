// Package seed loads the starter menu and bootstrap credentials into a store.
package seed

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/cookie"
)

// ParseCookies decodes a JSON array of menu items.
func ParseCookies(data []byte) ([]cookie.Cookie, error) {
	var out []cookie.Cookie
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var c cookie.Cookie
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name":
				return decodeStr(d, &c.Name)
			case "description":
				return decodeStr(d, &c.Description)
			case "ingredients":
				return decodeStr(d, &c.Ingredients)
			case "category":
				var v string
				if err := decodeStr(d, &v); err != nil {
					return err
				}
				c.Category = cookie.Category(v)
				return nil
			case "price":
				var v string
				if err := decodeStr(d, &v); err != nil {
					return err
				}
				p, err := decimal.NewFromString(v)
				if err != nil {
					return errors.Wrapf(err, "parse price of %q", c.Name)
				}
				c.Price = p
				return nil
			case "weight":
				return decodeStr(d, &c.Weight)
			case "image":
				return decodeStr(d, &c.Image)
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if c.Name == "" || !c.Category.Valid() || !c.Price.IsPositive() {
			return errors.Errorf("invalid seed cookie %q", c.Name)
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cookies")
	}
	return out, nil
}

func decodeStr(d *jx.Decoder, dst *string) error {
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// Cookies creates every cookie whose name is not on the menu yet and
// returns how many were added. Existing entries are left untouched, so
// running it twice is harmless.
func Cookies(ctx context.Context, repo cookie.Repository, cookies []cookie.Cookie, now time.Time) (int, error) {
	exists := make([]bool, len(cookies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range cookies {
		g.Go(func() error {
			_, err := repo.GetByName(gctx, cookies[i].Name)
			switch {
			case err == nil:
				exists[i] = true
				return nil
			case errors.Is(err, cookie.ErrNotFound):
				return nil
			default:
				return errors.Wrapf(err, "lookup %q", cookies[i].Name)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Create in file order so ids follow the menu.
	added := 0
	for i := range cookies {
		if exists[i] {
			continue
		}
		c := cookies[i]
		c.CreatedAt = now
		if err := repo.Create(ctx, &c); err != nil {
			if errors.Is(err, cookie.ErrDuplicateName) {
				continue
			}
			return added, errors.Wrapf(err, "create %q", c.Name)
		}
		added++
	}
	return added, nil
}

// APIKey registers secret as an admin key named name and returns its id.
// Re-registering the same secret keeps its id and refreshes the name.
func APIKey(ctx context.Context, store auth.Store, pepper []byte, name, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty api key")
	}
	hash := auth.HashKey(pepper, secret)

	id := uuid.NewString()
	if existing, err := store.FindByHash(ctx, hash); err == nil {
		id = existing.ID
	} else if !errors.Is(err, auth.ErrKeyNotFound) {
		return "", errors.Wrap(err, "find api key")
	}

	if err := store.UpsertAPIKey(ctx, auth.APIKeyInfo{
		ID:      id,
		KeyHash: hash,
		Name:    name,
		Scopes:  []string{auth.ScopeAdmin},
	}); err != nil {
		return "", errors.Wrap(err, "upsert api key")
	}
	return id, nil
}
