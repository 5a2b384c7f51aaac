package relay

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
)

// ContentType of every relay request.
const ContentType = "application/x-www-form-urlencoded"

// Relay posts transformed documents to the URL they carry.
// Delivery is at most once: there is no retry, and failures are only logged.
type Relay struct {
	client *http.Client
	logger *slog.Logger
	hooks  domain.Hooks
	wg     sync.WaitGroup
}

// Option configures a Relay.
type Option func(*Relay)

// WithClient sets the HTTP client used for outbound calls.
func WithClient(client *http.Client) Option {
	return func(r *Relay) {
		r.client = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithHooks registers observability hooks. Only OnRelay is used.
func WithHooks(hooks domain.Hooks) Option {
	return func(r *Relay) {
		r.hooks = hooks
	}
}

// New creates a relay. The default client has no timeout.
func New(opts ...Option) *Relay {
	r := &Relay{
		client: &http.Client{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch starts a background POST of doc to its target and reports whether one
// was started. The call outlives ctx's cancellation but keeps its values.
func (r *Relay) Dispatch(ctx context.Context, doc *domain.Document) bool {
	if doc == nil {
		return false
	}
	target, ok := Target(doc)
	if !ok {
		return false
	}
	body := Encode(doc)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.send(context.WithoutCancel(ctx), target, body)
	}()
	return true
}

// Wait blocks until every dispatched relay has finished.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) send(ctx context.Context, target, body string) {
	requestID := domain.RequestIDFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		r.logger.Warn("Relay request invalid", "request_id", requestID, "url", target, "error", err)
		r.emit(ctx, target, 0, err)
		return
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("Relay failed", "request_id", requestID, "url", target, "error", err)
		r.emit(ctx, target, 0, err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	r.logger.Debug("Relay delivered", "request_id", requestID, "url", target, "status", resp.StatusCode)
	r.emit(ctx, target, resp.StatusCode, nil)
}

func (r *Relay) emit(ctx context.Context, target string, status int, err error) {
	if r.hooks.OnRelay == nil {
		return
	}
	r.hooks.OnRelay(ctx, &domain.RelayEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventRelay,
			RequestID: domain.RequestIDFromContext(ctx),
		},
		URL:        target,
		StatusCode: status,
		Err:        err,
	})
}
