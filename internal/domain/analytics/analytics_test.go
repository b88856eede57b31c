package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
)

// --- Mock implementations ---

type mockOrders struct {
	orders []order.Order
	err    error
}

func (m *mockOrders) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []order.Order
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrders) Count(ctx context.Context, f order.Filter) (int, error) {
	out, err := m.List(ctx, f)
	return len(out), err
}

type mockCookies struct{ n int }

func (m mockCookies) Count(context.Context) (int, error) { return m.n, nil }

type mockReviews struct {
	approved, pending int
}

func (m mockReviews) Count(_ context.Context, f review.Filter) (int, error) {
	switch {
	case f.Approved == nil:
		return m.approved + m.pending, nil
	case *f.Approved:
		return m.approved, nil
	default:
		return m.pending, nil
	}
}

func adminCtx() context.Context {
	return auth.WithSession(context.Background(), auth.Session{
		KeyID:  "test",
		Scopes: []string{auth.ScopeAdmin},
	})
}

// --- Tests ---

func TestStats(t *testing.T) {
	orders := &mockOrders{orders: []order.Order{
		{ID: 1, Status: order.StatusPending},
		{ID: 2, Status: order.StatusPending},
		{ID: 3, Status: order.StatusCompleted},
		{ID: 4, Status: order.StatusCancelled},
	}}
	svc := NewService(orders, mockCookies{n: 6}, mockReviews{approved: 3, pending: 2})

	st, err := svc.Stats(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalCookies:    6,
		TotalOrders:     4,
		PendingOrders:   2,
		CompletedOrders: 1,
		TotalReviews:    5,
		PendingReviews:  2,
	}, st)
}

func TestStats_Error(t *testing.T) {
	svc := NewService(&mockOrders{err: errors.New("db down")}, mockCookies{}, mockReviews{})

	_, err := svc.Stats(adminCtx())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestRevenueSummary(t *testing.T) {
	orders := &mockOrders{orders: []order.Order{
		priced(1, "Red Velvet", 2, "300", testNow),
		unpriced(2, "Unknown Flavor", 1, testNow),
	}}
	svc := NewService(orders, mockCookies{}, mockReviews{},
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	)

	s, err := svc.RevenueSummary(adminCtx())
	require.NoError(t, err)
	assertDecimal(t, "300", s.TotalRevenue)
	assertDecimal(t, "300", s.AverageOrderValue)
	assert.Equal(t, 2, s.TotalOrders)
}

func TestRequiresSession(t *testing.T) {
	svc := NewService(&mockOrders{}, mockCookies{}, mockReviews{})

	_, err := svc.RevenueSummary(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = svc.Stats(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
