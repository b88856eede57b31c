package notify

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/great-cookie/internal/domain/order"
)

var _ order.EventPublisher = Multi(nil)

// Multi fans an event out to every publisher. All publishers are attempted;
// the first failure is returned.
type Multi []order.EventPublisher

func (m Multi) Publish(ctx context.Context, e order.Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = errors.Wrap(err, "publish")
		}
	}
	return first
}
