// Package memory implements the domain repositories in process memory.
// It backs local development and handler tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/cookie"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
)

var (
	_ cookie.Repository = (*Cookies)(nil)
	_ order.Repository  = (*Orders)(nil)
	_ review.Repository = (*Reviews)(nil)
	_ auth.Store        = (*APIKeys)(nil)
)

// Cookies is an in-memory catalog.
type Cookies struct {
	mu     sync.RWMutex
	nextID int64
	items  []cookie.Cookie
}

// NewCookies creates an empty catalog.
func NewCookies() *Cookies {
	return &Cookies{}
}

func (s *Cookies) List(_ context.Context, f cookie.Filter) ([]cookie.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(f.Search)
	out := make([]cookie.Cookie, 0, len(s.items))
	for _, c := range s.items {
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Description), term) {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Cookies) GetByID(_ context.Context, id int64) (*cookie.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		c := s.items[i]
		return &c, nil
	}
	return nil, cookie.ErrNotFound
}

func (s *Cookies) GetByName(_ context.Context, name string) (*cookie.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.items {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, cookie.ErrNotFound
}

func (s *Cookies) Create(_ context.Context, c *cookie.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.Name, 0) {
		return cookie.ErrDuplicateName
	}
	s.nextID++
	c.ID = s.nextID
	s.items = append(s.items, *c)
	return nil
}

func (s *Cookies) Update(_ context.Context, c *cookie.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(c.ID)
	if i < 0 {
		return cookie.ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return cookie.ErrDuplicateName
	}
	s.items[i] = *c
	return nil
}

func (s *Cookies) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return cookie.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Cookies) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *Cookies) index(id int64) int {
	return slices.IndexFunc(s.items, func(c cookie.Cookie) bool { return c.ID == id })
}

func (s *Cookies) nameTaken(name string, except int64) bool {
	return slices.ContainsFunc(s.items, func(c cookie.Cookie) bool {
		return c.Name == name && c.ID != except
	})
}

// Orders is an in-memory order store. Orders are kept in creation order and
// never removed.
type Orders struct {
	mu    sync.RWMutex
	items []order.Order
}

// NewOrders creates an empty order store.
func NewOrders() *Orders {
	return &Orders{}
}

func (s *Orders) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = int64(len(s.items)) + 1
	s.items = append(s.items, cloneOrder(*o))
	return nil
}

func (s *Orders) Get(_ context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > int64(len(s.items)) {
		return nil, order.ErrNotFound
	}
	o := cloneOrder(s.items[id-1])
	return &o, nil
}

func (s *Orders) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0, len(s.items))
	for _, o := range s.items {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	if f.Newest {
		slices.Reverse(out)
	}
	return out, nil
}

func (s *Orders) Update(_ context.Context, id int64, fn func(o *order.Order) error) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > int64(len(s.items)) {
		return nil, order.ErrNotFound
	}
	o := cloneOrder(s.items[id-1])
	if err := fn(&o); err != nil {
		return nil, err
	}
	o.ID = id
	s.items[id-1] = cloneOrder(o)
	return &o, nil
}

func (s *Orders) Count(_ context.Context, f order.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f.Status == nil {
		return len(s.items), nil
	}
	n := 0
	for _, o := range s.items {
		if o.Status == *f.Status {
			n++
		}
	}
	return n, nil
}

// cloneOrder copies the pointer fields so callers never share memory with
// the store.
func cloneOrder(o order.Order) order.Order {
	o.Notes = clonePtr(o.Notes)
	o.DeliveryAddress = clonePtr(o.DeliveryAddress)
	o.PaymentMethod = clonePtr(o.PaymentMethod)
	o.DeliveryDate = clonePtr(o.DeliveryDate)
	o.TotalPrice = clonePtr(o.TotalPrice)
	return o
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Reviews is an in-memory review store.
type Reviews struct {
	mu     sync.RWMutex
	nextID int64
	items  []review.Review
}

// NewReviews creates an empty review store.
func NewReviews() *Reviews {
	return &Reviews{}
}

func (s *Reviews) Create(_ context.Context, r *review.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	s.items = append(s.items, *r)
	return nil
}

func (s *Reviews) List(_ context.Context, f review.Filter) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []review.Review
	for i := len(s.items) - 1; i >= 0; i-- {
		r := s.items[i]
		if f.Approved != nil && r.Approved != *f.Approved {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Reviews) Approve(_ context.Context, id int64) (*review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, review.ErrNotFound
	}
	s.items[i].Approved = true
	r := s.items[i]
	return &r, nil
}

func (s *Reviews) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return review.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Reviews) Count(_ context.Context, f review.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.items {
		if f.Approved == nil || r.Approved == *f.Approved {
			n++
		}
	}
	return n, nil
}

func (s *Reviews) index(id int64) int {
	return slices.IndexFunc(s.items, func(r review.Review) bool { return r.ID == id })
}

// APIKeys is an in-memory API key store.
type APIKeys struct {
	mu     sync.RWMutex
	byHash map[string]auth.APIKeyInfo
}

// NewAPIKeys creates an empty key store.
func NewAPIKeys() *APIKeys {
	return &APIKeys{byHash: make(map[string]auth.APIKeyInfo)}
}

func (s *APIKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.byHash[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	info.Scopes = slices.Clone(info.Scopes)
	return &info, nil
}

func (s *APIKeys) UpsertAPIKey(_ context.Context, info auth.APIKeyInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, existing := range s.byHash {
		if existing.ID == info.ID {
			delete(s.byHash, hash)
		}
	}
	info.Scopes = slices.Clone(info.Scopes)
	s.byHash[info.KeyHash] = info
	return nil
}
