package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the channel posts are published on unless WithChannel is used.
const DefaultChannel = "wphook:posts"

// Publisher is a post handler that publishes each document as JSON on a
// Redis channel and optionally keeps the latest ones in a capped list.
type Publisher struct {
	client     *backend.Client
	channel    string
	archive    string
	archiveMax int64
	ttl        time.Duration
}

type Option func(*Publisher)

// WithChannel sets the Pub/Sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		p.channel = channel
	}
}

// WithArchive keeps the newest max documents in the list at key.
// A max of zero keeps them all.
func WithArchive(key string, max int64) Option {
	return func(p *Publisher) {
		p.archive = key
		p.archiveMax = max
	}
}

// WithTTL sets the expiration of the archive list.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

// New creates a publisher with its own client.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle publishes doc and returns it unchanged, so it can sit in front of the relay.
func (p *Publisher) Handle(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.channel, data)
	if p.archive != "" {
		pipe.LPush(ctx, p.archive, data)
		if p.archiveMax > 0 {
			pipe.LTrim(ctx, p.archive, 0, p.archiveMax-1)
		}
		if p.ttl > 0 {
			pipe.Expire(ctx, p.archive, p.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to publish post to %q: %w", p.channel, err)
	}
	return doc, nil
}

// Ping checks that the server answers.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s unreachable: %w", p.client.Options().Addr, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
