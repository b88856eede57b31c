package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/great-cookie/internal/domain/auth"
)

const (
	MinRating = 1
	MaxRating = 5

	defaultPublicLimit = 50
)

// ValidationError reports a rejected review field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Submission is a review sent by a customer.
type Submission struct {
	CustomerName string
	Rating       int
	Comment      string
}

// Service implements review submission and moderation.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a review Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit stores a review pending moderation.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Review, error) {
	r := &Review{
		CustomerName: strings.TrimSpace(sub.CustomerName),
		Rating:       sub.Rating,
		Comment:      strings.TrimSpace(sub.Comment),
		CreatedAt:    s.now(),
	}
	switch {
	case r.CustomerName == "":
		return nil, &ValidationError{Field: "customer_name", Reason: "required"}
	case r.Rating < MinRating || r.Rating > MaxRating:
		return nil, &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating)}
	case r.Comment == "":
		return nil, &ValidationError{Field: "comment", Reason: "required"}
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// ListApproved returns the newest approved reviews.
func (s *Service) ListApproved(ctx context.Context, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = defaultPublicLimit
	}
	approved := true
	reviews, err := s.repo.List(ctx, Filter{Approved: &approved, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "list approved reviews")
	}
	return reviews, nil
}

// ListAll returns every review for moderation, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Review, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	reviews, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return reviews, nil
}

// Approve publishes a review.
func (s *Service) Approve(ctx context.Context, id int64) (*Review, error) {
	if err := auth.Require(ctx); err != nil {
		return nil, err
	}
	r, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "approve review %d", id)
	}
	return r, nil
}

// Delete removes a review.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := auth.Require(ctx); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete review %d", id)
	}
	return nil
}
