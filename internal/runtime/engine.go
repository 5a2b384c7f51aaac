package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
)

// Engine runs the metaWeblog.newPost pipeline:
// normalize, resolve categories, authenticate, fan out.
type Engine struct {
	registration domain.Registration
	hooks        domain.Hooks
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine seals reg and returns an engine bound to it.
// The registration is never modified afterwards and is shared by all requests.
func NewEngine(reg domain.Registration, opts ...EngineOption) (*Engine, error) {
	sealed, err := domain.Seal(reg)
	if err != nil {
		return nil, err
	}

	e := &Engine{registration: sealed}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e, nil
}

// Registration returns the sealed registration.
func (e *Engine) Registration() domain.Registration {
	return e.registration
}

// NewPost runs the pipeline for the positional newPost params and returns the
// canonical transformed document: the first handler's result, which may be nil.
//
// Errors wrap one of domain.ErrMalformedPayload, domain.ErrAuthFailed,
// domain.ErrAuthRejected or domain.ErrHandler.
func (e *Engine) NewPost(ctx context.Context, params []any) (*domain.Document, error) {
	doc, err := NormalizePost(params)
	if err != nil {
		return nil, err
	}

	res := resolve(e.registration, doc)
	e.logger.Debug("Resolved handlers",
		"request_id", domain.RequestIDFromContext(ctx),
		"handlers", res.names(),
		"auth", res.auth != nil,
	)

	if err := authenticate(ctx, res.auth, doc); err != nil {
		return nil, err
	}

	return e.fanOut(ctx, res.handlers, doc)
}

func (e *Engine) emitHandler(ctx context.Context, name string, elapsed time.Duration, err error) {
	if e.hooks.OnHandler == nil {
		return
	}
	e.hooks.OnHandler(ctx, &domain.HandlerEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventHandler,
			RequestID: domain.RequestIDFromContext(ctx),
		},
		Handler:  name,
		Duration: elapsed,
		Err:      err,
	})
}

func (r resolution) names() []string {
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.name
	}
	return names
}
