package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/aretw0/wphook/pkg/xmlrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func categoryParams(categories ...any) []any {
	return postParams(xmlrpc.Fields{
		{Name: "title", Value: "A title"},
		{Name: "categories", Value: categories},
	})
}

func TestEngine_DefaultPassThrough(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	out, err := engine.NewPost(context.Background(), categoryParams("http://example.org"))
	require.NoError(t, err)
	assert.Equal(t, []string{"username", "password", "title", "categories"}, out.Keys())
}

func TestEngine_RejectsInvalidRegistration(t *testing.T) {
	_, err := NewEngine(domain.CategoryHandlers{Handlers: map[string]domain.Handler{"auth": noopHandler}})
	assert.ErrorIs(t, err, domain.ErrInvalidRegistration)
}

func TestEngine_MalformedPayload(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	_, err = engine.NewPost(context.Background(), []any{"only one"})
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestEngine_AuthGatesHandlers(t *testing.T) {
	var invoked atomic.Bool
	handler := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		invoked.Store(true)
		return doc, nil
	}
	reject := func(context.Context, string, string) (any, error) { return false, nil }

	engine, err := NewEngine(domain.AuthenticatedHandler{Auth: reject, Handler: handler})
	require.NoError(t, err)

	_, err = engine.NewPost(context.Background(), categoryParams())
	assert.ErrorIs(t, err, domain.ErrAuthRejected)
	assert.False(t, invoked.Load())
}

func TestEngine_AuthCompletesBeforeFanOut(t *testing.T) {
	var authDone atomic.Bool
	auth := func(context.Context, string, string) (any, error) {
		time.Sleep(20 * time.Millisecond)
		authDone.Store(true)
		return map[string]any{"id": 7}, nil
	}

	var sawAuth atomic.Bool
	handler := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		sawAuth.Store(authDone.Load())
		return doc, nil
	}

	engine, err := NewEngine(domain.AuthenticatedHandler{Auth: auth, Handler: handler})
	require.NoError(t, err)

	out, err := engine.NewPost(context.Background(), categoryParams())
	require.NoError(t, err)
	assert.True(t, sawAuth.Load())
	assert.Equal(t, []string{"title", "categories", "user"}, out.Keys())
}

func TestEngine_FanOutFirstResultWins(t *testing.T) {
	slow := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		time.Sleep(30 * time.Millisecond)
		out := doc.Clone()
		out.Set("from", "foo")
		return out, nil
	}
	fast := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		out := doc.Clone()
		out.Set("from", "bar")
		return out, nil
	}

	engine, err := NewEngine(domain.CategoryHandlers{Handlers: map[string]domain.Handler{"foo": slow, "bar": fast}})
	require.NoError(t, err)

	out, err := engine.NewPost(context.Background(), categoryParams("cat:foo", "cat:bar"))
	require.NoError(t, err)

	from, _ := out.String("from")
	assert.Equal(t, "foo", from, "result follows invocation order, not completion order")
	assert.False(t, out.Has(domain.FieldCategories))
}

func TestEngine_FanOutSharesDocument(t *testing.T) {
	var mu sync.Mutex
	var seen []*domain.Document
	record := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, doc)
		return doc, nil
	}

	engine, err := NewEngine(domain.CategoryHandlers{Handlers: map[string]domain.Handler{"foo": record, "bar": record}})
	require.NoError(t, err)

	_, err = engine.NewPost(context.Background(), categoryParams("cat:foo", "cat:bar"))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1])
	assert.Equal(t, []string{"username", "password", "title"}, seen[0].Keys())
}

func TestEngine_FanOutJoinsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var slowFinished atomic.Bool

	failing := func(context.Context, *domain.Document) (*domain.Document, error) {
		return nil, boom
	}
	slow := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		time.Sleep(30 * time.Millisecond)
		slowFinished.Store(true)
		return doc, nil
	}

	engine, err := NewEngine(domain.CategoryHandlers{Handlers: map[string]domain.Handler{"foo": failing, "bar": slow}})
	require.NoError(t, err)

	out, err := engine.NewPost(context.Background(), categoryParams("cat:foo", "cat:bar"))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrHandler)
	assert.ErrorIs(t, err, boom)
	assert.True(t, slowFinished.Load(), "the join waits for every handler")
}

func TestEngine_HandlerPanicBecomesError(t *testing.T) {
	panicky := func(context.Context, *domain.Document) (*domain.Document, error) {
		panic("kaboom")
	}

	engine, err := NewEngine(domain.DefaultHandler{Handler: panicky})
	require.NoError(t, err)

	_, err = engine.NewPost(context.Background(), categoryParams())
	assert.ErrorIs(t, err, domain.ErrHandler)
	assert.ErrorContains(t, err, "kaboom")
}

func TestEngine_HandlerHooks(t *testing.T) {
	var mu sync.Mutex
	events := map[string]error{}
	hooks := domain.Hooks{
		OnHandler: func(_ context.Context, e *domain.HandlerEvent) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "req-42", e.RequestID)
			assert.Equal(t, domain.EventHandler, e.Type)
			events[e.Handler] = e.Err
		},
	}
	boom := errors.New("boom")
	failing := func(context.Context, *domain.Document) (*domain.Document, error) { return nil, boom }

	engine, err := NewEngine(
		domain.CategoryHandlers{Handlers: map[string]domain.Handler{"foo": noopHandler, "bar": failing}},
		WithHooks(hooks),
	)
	require.NoError(t, err)

	ctx := domain.WithRequestID(context.Background(), "req-42")
	_, err = engine.NewPost(ctx, categoryParams("cat:foo", "cat:bar"))
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.NoError(t, events["foo"])
	assert.ErrorIs(t, events["bar"], boom)
}
