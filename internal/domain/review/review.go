package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested review does not exist.
var ErrNotFound = errors.New("review not found")

// Review is customer feedback. Only approved reviews are shown publicly.
type Review struct {
	ID           int64
	CustomerName string
	Rating       int
	Comment      string
	Approved     bool
	CreatedAt    time.Time
}

// Filter narrows review listings. Results are always newest first.
type Filter struct {
	Approved *bool
	// Limit caps the number of results; zero means no limit.
	Limit int
}

// Repository defines persistence operations for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	List(ctx context.Context, f Filter) ([]Review, error)
	Approve(ctx context.Context, id int64) (*Review, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, f Filter) (int, error)
}
