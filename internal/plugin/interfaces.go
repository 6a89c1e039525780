package plugin

import (
	"context"

	"github.com/kuralabs/flowbber/internal/bundle"
)

// Source collects external data. The returned value is merged into the
// run's bundle under the component's id.
type Source interface {
	Collect(ctx context.Context) (any, error)
}

// Aggregator transforms the cumulative bundle. Aggregators run strictly
// sequentially and may add, edit or delete any key.
type Aggregator interface {
	Accumulate(ctx context.Context, b *bundle.Bundle) error
}

// Sink publishes a read-only snapshot of the bundle. The snapshot is
// private to the sink; mutations are harmless and invisible elsewhere.
type Sink interface {
	Distribute(ctx context.Context, snapshot *bundle.Bundle) error
}
