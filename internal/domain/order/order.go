package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Source tags the channel an order came through.
type Source string

const (
	SourceWebsite   Source = "website"
	SourceMessenger Source = "messenger"
	SourceManual    Source = "manual"
)

// Valid reports whether s is a known order source.
func (s Source) Valid() bool {
	switch s {
	case SourceWebsite, SourceMessenger, SourceManual:
		return true
	}
	return false
}

// Order is a single-cookie customer order.
//
// TotalPrice is nil when the cookie name did not resolve to a catalog entry
// at the time of the last price computation.
type Order struct {
	ID              int64
	CustomerName    string
	Contact         string
	CookieName      string
	Quantity        int
	Notes           *string
	DeliveryAddress *string
	TotalPrice      *decimal.Decimal
	PaymentMethod   *string
	DeliveryDate    *string
	Source          Source
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Priced reports whether the order carries a computed total.
func (o *Order) Priced() bool {
	return o.TotalPrice != nil
}

// Filter narrows order listings.
type Filter struct {
	// Status keeps only orders in the given status when set.
	Status *Status
	// Newest returns the most recently created orders first. Otherwise
	// orders come back in creation order.
	Newest bool
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores o and assigns its ID.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// Update loads the order, applies fn and stores the result atomically.
	// When fn returns an error nothing is written.
	Update(ctx context.Context, id int64, fn func(o *Order) error) (*Order, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated       EventType = "order_created"
	EventUpdated       EventType = "order_updated"
	EventStatusChanged EventType = "order_status_changed"
)

// Event describes a committed order change.
type Event struct {
	Type           EventType
	Order          Order
	PreviousStatus Status
	At             time.Time
}

// EventPublisher delivers order events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
