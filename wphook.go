package wphook

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/wphook/internal/runtime"
	httpAdapter "github.com/aretw0/wphook/pkg/adapters/http"
	"github.com/aretw0/wphook/pkg/adapters/relay"
	"github.com/aretw0/wphook/pkg/domain"
)

// Webhook is the high-level entry point for the library.
// It terminates the metaWeblog endpoint and relays transformed posts.
type Webhook struct {
	server *httpAdapter.Server
	relay  *relay.Relay
	engine *runtime.Engine
}

type options struct {
	logger       *slog.Logger
	hooks        domain.Hooks
	relayEnabled bool
	client       *http.Client
	path         string
	adminPrefix  string
	maxBodySize  int64
	now          func() time.Time
}

// Option defines a functional option for configuring the Webhook.
type Option func(*options)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = domain.MergeHooks(o.hooks, hooks)
	}
}

// WithRelay toggles the outbound relay (default: enabled).
func WithRelay(enabled bool) Option {
	return func(o *options) {
		o.relayEnabled = enabled
	}
}

// WithHTTPClient sets the client used for outbound relay requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithPath sets the XML-RPC endpoint path (default: /xmlrpc.php).
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithAdminPrefix sets the path prefix acknowledged with an empty 200
// (default: /wp-admin). An empty prefix disables it.
func WithAdminPrefix(prefix string) Option {
	return func(o *options) {
		o.adminPrefix = prefix
	}
}

// WithMaxBodySize bounds the request body read by the decoder. Zero means unbounded.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// WithClock sets the time source for the post IDs returned by newPost.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New validates reg and builds a Webhook around it.
// A nil registration forwards every post unchanged.
func New(reg domain.Registration, opts ...Option) (*Webhook, error) {
	o := &options{
		relayEnabled: true,
		path:         httpAdapter.DefaultPath,
		adminPrefix:  httpAdapter.DefaultAdminPrefix,
		maxBodySize:  httpAdapter.DefaultMaxBodySize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engine, err := runtime.NewEngine(reg,
		runtime.WithLogger(o.logger),
		runtime.WithHooks(o.hooks),
	)
	if err != nil {
		return nil, err
	}

	w := &Webhook{engine: engine}
	var relayer httpAdapter.Relayer
	if o.relayEnabled {
		relayOpts := []relay.Option{relay.WithLogger(o.logger), relay.WithHooks(o.hooks)}
		if o.client != nil {
			relayOpts = append(relayOpts, relay.WithClient(o.client))
		}
		w.relay = relay.New(relayOpts...)
		relayer = w.relay
	}

	w.server = httpAdapter.NewServer(engine, relayer, o.logger)
	w.server.Hooks = o.hooks
	w.server.Path = o.path
	w.server.AdminPrefix = o.adminPrefix
	w.server.MaxBodySize = o.maxBodySize
	w.server.Now = o.now
	return w, nil
}

// Middleware wraps next with the XML-RPC endpoint. It matches the
// func(http.Handler) http.Handler shape used by chi and most routers.
func (w *Webhook) Middleware(next http.Handler) http.Handler {
	return w.server.Middleware(next)
}

// Handler serves the endpoint alone and answers 404 for every other path.
func (w *Webhook) Handler() http.Handler {
	return w.server.Middleware(http.NotFoundHandler())
}

// Registration returns the sealed registration in use.
func (w *Webhook) Registration() domain.Registration {
	return w.engine.Registration()
}

// Wait blocks until in-flight relay requests finish.
func (w *Webhook) Wait() {
	if w.relay != nil {
		w.relay.Wait()
	}
}
