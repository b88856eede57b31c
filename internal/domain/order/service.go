package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/internal/domain/auth"
	"github.com/xenking/great-cookie/internal/domain/cookie"
)

// ValidationError reports a rejected order field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Catalog resolves cookie prices by name.
type Catalog interface {
	GetByName(ctx context.Context, name string) (*cookie.Cookie, error)
}

// Draft holds the input for placing an order. Any client supplied total is
// not part of the draft: prices always come from the catalog.
type Draft struct {
	CustomerName    string
	Contact         string
	CookieName      string
	Quantity        int
	Notes           *string
	DeliveryAddress *string
	PaymentMethod   *string
	DeliveryDate    *string
	// Source defaults to SourceWebsite when empty.
	Source Source
}

// DetailsPatch holds optional order detail changes. Nil fields are left
// untouched; a pointer to an empty string clears an optional field.
type DetailsPatch struct {
	CookieName      *string
	Quantity        *int
	Notes           *string
	DeliveryAddress *string
	PaymentMethod   *string
	DeliveryDate    *string
}

func (p DetailsPatch) empty() bool {
	return p.CookieName == nil && p.Quantity == nil && p.Notes == nil &&
		p.DeliveryAddress == nil && p.PaymentMethod == nil && p.DeliveryDate == nil
}

// Service encapsulates the order lifecycle.
type Service struct {
	catalog Catalog
	orders  Repository
	events  EventPublisher
	now     func() time.Time
	loc     *time.Location

	created     metric.Int64Counter
	transitions metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes order events to p after each committed change.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the calendar used to render export timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithMeterProvider records order counters with mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.initMetrics(mp) }
}

// NewService creates an order Service.
func NewService(catalog Catalog, orders Repository, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		orders:  orders,
		now:     time.Now,
		loc:     time.Local,
	}
	s.initMetrics(noop.NewMeterProvider())
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) initMetrics(mp metric.MeterProvider) {
	meter := mp.Meter("github.com/xenking/great-cookie/internal/domain/order")

	// Counter creation only fails on invalid names; fall back to no-op.
	var err error
	if s.created, err = meter.Int64Counter("bakery.orders.created",
		metric.WithDescription("Orders placed"),
	); err != nil {
		s.created, _ = noop.NewMeterProvider().Meter("").Int64Counter("")
	}
	if s.transitions, err = meter.Int64Counter("bakery.orders.transitions",
		metric.WithDescription("Order status changes"),
	); err != nil {
		s.transitions, _ = noop.NewMeterProvider().Meter("").Int64Counter("")
	}
}

// Create validates d, prices it from the catalog and stores a pending order.
// An unknown cookie name leaves the total unset instead of failing.
func (s *Service) Create(ctx context.Context, d Draft) (*Order, error) {
	o, err := d.normalize()
	if err != nil {
		return nil, err
	}

	total, err := s.price(ctx, o.CookieName, o.Quantity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o.TotalPrice = total
	o.Status = StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", string(o.Source)),
		attribute.Bool("priced", o.Priced()),
	))
	s.publish(ctx, Event{Type: EventCreated, Order: *o, At: now})
	return o, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

// List returns orders matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *f.Status)}
	}
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Change holds an order edit. Details and Status are applied together in a
// single store write: either both take effect or neither does.
type Change struct {
	Details DetailsPatch
	Status  *Status
}

// errStalePrice aborts a write whose price was computed for a cookie or
// quantity that changed before the row was locked.
var errStalePrice = errors.New("order changed while pricing")

const maxPriceAttempts = 3

// UpdateStatus moves the order to status. Applying the current status again
// succeeds and only refreshes UpdatedAt.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	return s.Update(ctx, id, Change{Status: &status})
}

// UpdateDetails applies p to the order. When the cookie or quantity changes
// the total is recomputed from the current catalog price. Status is never
// touched.
func (s *Service) UpdateDetails(ctx context.Context, id int64, p DetailsPatch) (*Order, error) {
	return s.Update(ctx, id, Change{Details: p})
}

// Update validates c and applies it atomically. An illegal status move
// rejects the detail edits as well.
func (s *Service) Update(ctx context.Context, id int64, c Change) (*Order, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		o, prev, err := s.apply(ctx, id, c)
		if errors.Is(err, errStalePrice) && attempt < maxPriceAttempts {
			zctx.From(ctx).Debug("Order changed while pricing, retrying",
				zap.Int64("order_id", id),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "update order %d", id)
		}

		if !c.Details.empty() {
			s.publish(ctx, Event{Type: EventUpdated, Order: *o, PreviousStatus: prev, At: o.UpdatedAt})
		}
		if c.Status != nil && prev != o.Status {
			s.transitions.Add(ctx, 1, metric.WithAttributes(
				attribute.String("from", string(prev)),
				attribute.String("to", string(o.Status)),
			))
			s.publish(ctx, Event{Type: EventStatusChanged, Order: *o, PreviousStatus: prev, At: o.UpdatedAt})
		}
		return o, nil
	}
}

// apply prices the change from a snapshot, then writes it under the row lock
// provided the priced cookie and quantity still match the locked row.
func (s *Service) apply(ctx context.Context, id int64, c Change) (*Order, Status, error) {
	p := c.Details
	repriced := p.CookieName != nil || p.Quantity != nil

	// Price outside of the store update so catalog reads never nest inside
	// an order write.
	var (
		cookieName string
		quantity   int
		total      *decimal.Decimal
	)
	if repriced {
		current, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, "", err
		}
		cookieName, quantity = p.target(current)
		if total, err = s.price(ctx, cookieName, quantity); err != nil {
			return nil, "", err
		}
	}

	var prev Status
	now := s.now()
	o, err := s.orders.Update(ctx, id, func(o *Order) error {
		prev = o.Status
		if c.Status != nil && !prev.CanTransitionTo(*c.Status) {
			return &TransitionError{From: prev, To: *c.Status}
		}
		if repriced {
			if name, qty := p.target(o); name != cookieName || qty != quantity {
				return errStalePrice
			}
			o.CookieName = cookieName
			o.Quantity = quantity
			o.TotalPrice = total
		}
		if p.Notes != nil {
			o.Notes = optional(p.Notes)
		}
		if p.DeliveryAddress != nil {
			o.DeliveryAddress = optional(p.DeliveryAddress)
		}
		if p.PaymentMethod != nil {
			o.PaymentMethod = optional(p.PaymentMethod)
		}
		if p.DeliveryDate != nil {
			o.DeliveryDate = optional(p.DeliveryDate)
		}
		if c.Status != nil {
			o.Status = *c.Status
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return o, prev, nil
}

func (c Change) validate() error {
	p := c.Details
	if p.empty() && c.Status == nil {
		return &ValidationError{Field: "body", Reason: "no changes"}
	}
	if c.Status != nil && !c.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *c.Status)}
	}
	if p.CookieName != nil && strings.TrimSpace(*p.CookieName) == "" {
		return &ValidationError{Field: "cookie_name", Reason: "required"}
	}
	if p.Quantity != nil && *p.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	return nil
}

// target returns the cookie and quantity o ends up with after p.
func (p DetailsPatch) target(o *Order) (string, int) {
	name, qty := o.CookieName, o.Quantity
	if p.CookieName != nil {
		name = strings.TrimSpace(*p.CookieName)
	}
	if p.Quantity != nil {
		qty = *p.Quantity
	}
	return name, qty
}

// price returns the catalog price of quantity cookies, or nil when the
// cookie is not on the menu.
func (s *Service) price(ctx context.Context, cookieName string, quantity int) (*decimal.Decimal, error) {
	c, err := s.catalog.GetByName(ctx, cookieName)
	if err != nil {
		if errors.Is(err, cookie.ErrNotFound) {
			zctx.From(ctx).Warn("Cookie not in catalog, leaving order unpriced",
				zap.String("cookie", cookieName),
			)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "lookup cookie %q", cookieName)
	}
	total := c.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	return &total, nil
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		zctx.From(ctx).Error("Publish order event",
			zap.String("type", string(e.Type)),
			zap.Int64("order_id", e.Order.ID),
			zap.Error(err),
		)
	}
}

// normalize trims d and converts it into an unsaved order.
func (d Draft) normalize() (*Order, error) {
	o := &Order{
		CustomerName:    strings.TrimSpace(d.CustomerName),
		Contact:         strings.TrimSpace(d.Contact),
		CookieName:      strings.TrimSpace(d.CookieName),
		Quantity:        d.Quantity,
		Notes:           optional(d.Notes),
		DeliveryAddress: optional(d.DeliveryAddress),
		PaymentMethod:   optional(d.PaymentMethod),
		DeliveryDate:    optional(d.DeliveryDate),
		Source:          d.Source,
	}
	if o.Source == "" {
		o.Source = SourceWebsite
	}

	switch {
	case o.CustomerName == "":
		return nil, &ValidationError{Field: "customer_name", Reason: "required"}
	case o.Contact == "":
		return nil, &ValidationError{Field: "contact", Reason: "required"}
	case o.CookieName == "":
		return nil, &ValidationError{Field: "cookie_name", Reason: "required"}
	case o.Quantity < 1:
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	case !o.Source.Valid():
		return nil, &ValidationError{Field: "order_source", Reason: fmt.Sprintf("unknown source %q", o.Source)}
	}
	return o, nil
}

// optional trims v and maps blank values to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
