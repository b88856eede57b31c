package analytics

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
)

// OrderReader reads the order collection.
type OrderReader interface {
	List(ctx context.Context, f order.Filter) ([]order.Order, error)
	Count(ctx context.Context, f order.Filter) (int, error)
}

// CookieCounter counts catalog entries.
type CookieCounter interface {
	Count(ctx context.Context) (int, error)
}

// ReviewCounter counts reviews.
type ReviewCounter interface {
	Count(ctx context.Context, f review.Filter) (int, error)
}

// Stats holds the admin dashboard counters.
type Stats struct {
	TotalCookies    int
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	TotalReviews    int
	PendingReviews  int
}

// Service serves admin analytics.
type Service struct {
	orders  OrderReader
	cookies CookieCounter
	reviews ReviewCounter

	now         func() time.Time
	loc         *time.Location
	bestSellers int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the calendar used for monthly and daily buckets.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithBestSellers sets how many cookies the ranking keeps.
func WithBestSellers(n int) Option {
	return func(s *Service) { s.bestSellers = n }
}

// NewService creates an analytics Service.
func NewService(orders OrderReader, cookies CookieCounter, reviews ReviewCounter, opts ...Option) *Service {
	s := &Service{
		orders:      orders,
		cookies:     cookies,
		reviews:     reviews,
		now:         time.Now,
		loc:         time.Local,
		bestSellers: DefaultBestSellers,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Stats gathers the dashboard counters concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}

	var (
		st         Stats
		pending    = order.StatusPending
		completed  = order.StatusCompleted
		unapproved = false
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalCookies, err = s.cookies.Count(ctx)
		return errors.Wrap(err, "count cookies")
	})
	g.Go(func() (err error) {
		st.TotalOrders, err = s.orders.Count(ctx, order.Filter{})
		return errors.Wrap(err, "count orders")
	})
	g.Go(func() (err error) {
		st.PendingOrders, err = s.orders.Count(ctx, order.Filter{Status: &pending})
		return errors.Wrap(err, "count pending orders")
	})
	g.Go(func() (err error) {
		st.CompletedOrders, err = s.orders.Count(ctx, order.Filter{Status: &completed})
		return errors.Wrap(err, "count completed orders")
	})
	g.Go(func() (err error) {
		st.TotalReviews, err = s.reviews.Count(ctx, review.Filter{})
		return errors.Wrap(err, "count reviews")
	})
	g.Go(func() (err error) {
		st.PendingReviews, err = s.reviews.Count(ctx, review.Filter{Approved: &unapproved})
		return errors.Wrap(err, "count pending reviews")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}
