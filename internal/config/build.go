package config

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wphook/pkg/adapters/redis"
	"github.com/aretw0/wphook/pkg/adapters/relay"
	"github.com/aretw0/wphook/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Handler kinds.
const (
	KindLog     = "log"
	KindForward = "forward"
	KindRedis   = "redis"
	KindNoop    = "noop"
)

// Authenticator kinds.
const (
	KindStatic = "static"
	KindAllow  = "allow"
)

// ErrUnknownKind is returned for a component type with no implementation.
var ErrUnknownKind = errors.New("unknown component type")

// LogOptions configures the log handler.
type LogOptions struct {
	Message string `mapstructure:"message"`
	Level   string `mapstructure:"level"`
}

// ForwardOptions configures the forward handler.
type ForwardOptions struct {
	URL string `mapstructure:"url"`
}

// RedisOptions configures the redis handler.
type RedisOptions struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	Channel    string        `mapstructure:"channel"`
	Archive    string        `mapstructure:"archive"`
	ArchiveMax int64         `mapstructure:"archive_max"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// StaticOptions configures the static authenticator.
type StaticOptions struct {
	Users map[string]string `mapstructure:"users"`
}

// Built is a registration plus the resources its handlers hold.
type Built struct {
	Registration domain.Registration
	closers      []io.Closer
	publishers   []*redis.Publisher
}

// Ping checks every Redis server the handlers publish to.
func (b *Built) Ping(ctx context.Context) error {
	var errs []error
	for _, p := range b.publishers {
		errs = append(errs, p.Ping(ctx))
	}
	return errors.Join(errs...)
}

// Close releases every resource opened by Build.
func (b *Built) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Build turns the handler sections of c into a registration.
//
// With categories the result is a domain.CategoryHandlers whose reserved auth is
// category_auth, with default and auth serving posts that route nowhere.
// Otherwise it is a domain.AuthenticatedHandler when auth is set and a
// domain.DefaultHandler when it is not.
func Build(c *Config, logger *slog.Logger) (*Built, error) {
	b := &Built{}

	def, err := b.handler(c.Default, logger)
	if err != nil {
		return nil, b.fail(fmt.Errorf("default: %w", err))
	}
	auth, err := authenticator(c.Auth)
	if err != nil {
		return nil, b.fail(fmt.Errorf("auth: %w", err))
	}

	if len(c.Categories) > 0 {
		handlers := make(map[string]domain.Handler, len(c.Categories))
		for _, name := range c.CategoryNames() {
			comp := c.Categories[name]
			h, err := b.handler(&comp, logger.With("category", name))
			if err != nil {
				return nil, b.fail(fmt.Errorf("categories.%s: %w", name, err))
			}
			handlers[name] = h
		}
		catAuth, err := authenticator(c.CategoryAuth)
		if err != nil {
			return nil, b.fail(fmt.Errorf("category_auth: %w", err))
		}
		b.Registration = domain.CategoryHandlers{
			Handlers:     handlers,
			Auth:         catAuth,
			Default:      def,
			FallbackAuth: auth,
		}
	} else if auth != nil {
		b.Registration = domain.AuthenticatedHandler{Auth: auth, Handler: def}
	} else {
		b.Registration = domain.DefaultHandler{Handler: def}
	}

	if _, err := domain.Seal(b.Registration); err != nil {
		return nil, b.fail(err)
	}
	return b, nil
}

func (b *Built) fail(err error) error {
	if cerr := b.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// handler builds a post handler. A nil component yields nil, which the
// registration treats as a pass-through.
func (b *Built) handler(comp *Component, logger *slog.Logger) (domain.Handler, error) {
	if comp == nil {
		return nil, nil
	}

	switch comp.Type {
	case KindNoop:
		return domain.PassThrough, nil

	case KindLog:
		var opts LogOptions
		if err := decode(comp.Options, &opts); err != nil {
			return nil, err
		}
		return logHandler(logger, opts)

	case KindForward:
		var opts ForwardOptions
		if err := decode(comp.Options, &opts); err != nil {
			return nil, err
		}
		if !relay.IsRelayURL(opts.URL) {
			return nil, fmt.Errorf("forward: invalid url %q", opts.URL)
		}
		return forwardHandler(opts.URL), nil

	case KindRedis:
		var opts RedisOptions
		if err := decode(comp.Options, &opts); err != nil {
			return nil, err
		}
		if opts.Addr == "" {
			return nil, fmt.Errorf("redis: addr is required")
		}
		pubOpts := []redis.Option{}
		if opts.Channel != "" {
			pubOpts = append(pubOpts, redis.WithChannel(opts.Channel))
		}
		if opts.Archive != "" {
			pubOpts = append(pubOpts, redis.WithArchive(opts.Archive, opts.ArchiveMax))
		}
		if opts.TTL > 0 {
			pubOpts = append(pubOpts, redis.WithTTL(opts.TTL))
		}
		pub := redis.New(opts.Addr, opts.Password, opts.DB, pubOpts...)
		b.closers = append(b.closers, pub)
		b.publishers = append(b.publishers, pub)
		return pub.Handle, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, comp.Type)
}

func authenticator(comp *Component) (domain.Authenticator, error) {
	if comp == nil {
		return nil, nil
	}

	switch comp.Type {
	case KindAllow:
		return func(context.Context, string, string) (any, error) { return true, nil }, nil

	case KindStatic:
		var opts StaticOptions
		if err := decode(comp.Options, &opts); err != nil {
			return nil, err
		}
		if len(opts.Users) == 0 {
			return nil, fmt.Errorf("static: users must not be empty")
		}
		return staticAuth(opts.Users), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, comp.Type)
}

// decode maps raw options onto out, rejecting keys out does not declare.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func logHandler(logger *slog.Logger, opts LogOptions) (domain.Handler, error) {
	level := slog.LevelInfo
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
	}
	msg := opts.Message
	if msg == "" {
		msg = "Post received"
	}

	return func(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
		title, _ := doc.String(domain.FieldTitle)
		logger.Log(ctx, level, msg,
			"request_id", domain.RequestIDFromContext(ctx),
			"title", title,
			"keys", doc.Keys(),
		)
		return doc, nil
	}, nil
}

// forwardHandler returns a copy of the post carrying url, so the relay posts it there.
func forwardHandler(url string) domain.Handler {
	return func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		out := doc.Clone()
		out.Set(domain.FieldURL, url)
		return out, nil
	}
}

// staticAuth checks credentials against a fixed table.
func staticAuth(users map[string]string) domain.Authenticator {
	table := make(map[string]string, len(users))
	for u, p := range users {
		table[u] = p
	}
	return func(_ context.Context, username, password string) (any, error) {
		want, ok := table[username]
		if !ok {
			// Compare anyway so unknown users cost the same.
			want = password + "\x00"
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 || !ok {
			return false, nil
		}
		return map[string]any{"username": username}, nil
	}
}
