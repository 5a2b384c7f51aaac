package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// fanOut runs every handler concurrently on the same document and waits for all
// of them. The first error wins. Siblings of a failed handler are not cancelled;
// their results are discarded.
//
// The first handler's result, by position, is the canonical transformed document.
func (e *Engine) fanOut(ctx context.Context, handlers []namedHandler, doc *domain.Document) (*domain.Document, error) {
	results := make([]*domain.Document, len(handlers))

	var g errgroup.Group
	for i, h := range handlers {
		i, h := i, h
		g.Go(func() error {
			start := time.Now()
			out, err := invoke(ctx, h, doc)
			e.emitHandler(ctx, h.name, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("%s: %w", h.name, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHandler, err)
	}

	e.logger.Info("Post dispatched",
		"request_id", domain.RequestIDFromContext(ctx),
		"handlers", len(handlers),
	)
	return results[0], nil
}

// invoke reports a handler panic as an error.
func invoke(ctx context.Context, h namedHandler, doc *domain.Document) (out *domain.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.fn(ctx, doc)
}
