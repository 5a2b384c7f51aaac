package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(_ context.Context, doc *domain.Document) (*domain.Document, error) {
	return doc, nil
}

func allowAll(_ context.Context, _, _ string) (any, error) { return true, nil }

func TestResolve_CategoryTokens(t *testing.T) {
	reg := domain.CategoryHandlers{
		Handlers: map[string]domain.Handler{"foo": noopHandler, "bar": noopHandler},
		Auth:     allowAll,
	}

	doc := domain.NewDocumentFrom("categories", []any{"cat:bar", "news", "cat:baz", "cat:foo"})
	res := resolve(reg, doc)

	assert.Equal(t, []string{"bar", "foo"}, res.names())
	assert.NotNil(t, res.auth)
	assert.False(t, doc.Has(domain.FieldCategories), "categories should be removed once routed")
}

func TestResolve_NoTokenResolves(t *testing.T) {
	reg := domain.CategoryHandlers{
		Handlers: map[string]domain.Handler{"foo": noopHandler},
		Auth:     allowAll,
	}

	doc := domain.NewDocumentFrom("categories", []any{"cat:baz", "news"})
	res := resolve(reg, doc)

	require.Len(t, res.handlers, 1)
	assert.Equal(t, domain.DefaultHandlerName, res.handlers[0].name)
	assert.Nil(t, res.auth, "reserved auth only applies when a category resolved")
	assert.Equal(t, []any{"cat:baz", "news"}, doc.Map()["categories"])

	out, err := res.handlers[0].fn(context.Background(), doc)
	require.NoError(t, err)
	assert.Same(t, doc, out)
}

func TestResolve_FallbackAuth(t *testing.T) {
	reg := domain.CategoryHandlers{
		Handlers:     map[string]domain.Handler{"foo": noopHandler},
		FallbackAuth: allowAll,
	}

	res := resolve(reg, domain.NewDocumentFrom("title", "no categories"))
	assert.Equal(t, []string{domain.DefaultHandlerName}, res.names())
	assert.NotNil(t, res.auth)
}

func TestResolve_CategoryDefault(t *testing.T) {
	marked := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		out := doc.Clone()
		out.Set("default", true)
		return out, nil
	}
	reg := domain.CategoryHandlers{
		Handlers: map[string]domain.Handler{"foo": noopHandler},
		Default:  marked,
	}

	res := resolve(reg, domain.NewDocumentFrom("categories", []any{"cat:baz"}))
	require.Len(t, res.handlers, 1)

	out, err := res.handlers[0].fn(context.Background(), domain.NewDocument())
	require.NoError(t, err)
	assert.True(t, out.Has("default"))
}

func TestResolve_SingleHandlerIgnoresTokens(t *testing.T) {
	called := false
	h := func(_ context.Context, doc *domain.Document) (*domain.Document, error) {
		called = true
		return doc, nil
	}

	doc := domain.NewDocumentFrom("categories", []any{"cat:foo"})
	res := resolve(domain.AuthenticatedHandler{Auth: allowAll, Handler: h}, doc)

	require.Len(t, res.handlers, 1)
	assert.NotNil(t, res.auth)
	assert.True(t, doc.Has(domain.FieldCategories))

	_, _ = res.handlers[0].fn(context.Background(), doc)
	assert.True(t, called)
}

func TestRoutingNames(t *testing.T) {
	tests := []struct {
		name       string
		categories any
		want       []string
	}{
		{"absent", nil, nil},
		{"single string", "cat:foo", []string{"foo"}},
		{"string slice", []string{"cat:a", "b", "cat:c"}, []string{"a", "c"}},
		{"mixed slice", []any{"cat:a", int64(3), "cat:"}, []string{"a"}},
		{"prefix must lead", []any{"xcat:a", "Cat:b"}, nil},
		{"name keeps colons", []any{"cat:a:b"}, []string{"a:b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := domain.NewDocument()
			if tt.categories != nil {
				doc.Set(domain.FieldCategories, tt.categories)
			}
			assert.Equal(t, tt.want, routingNames(doc))
		})
	}
}
