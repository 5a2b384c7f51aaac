package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestTarget(t *testing.T) {
	tests := []struct {
		name string
		doc  *domain.Document
		want string
	}{
		{"url wins", domain.NewDocumentFrom("categories", "http://b.example", "url", "https://a.example/hook"), "https://a.example/hook"},
		{"categories fallback", domain.NewDocumentFrom("categories", []any{"http://example.org"}), "http://example.org"},
		{"empty url falls back", domain.NewDocumentFrom("url", "", "categories", []string{"http://example.org/x"}), "http://example.org/x"},
		{"several categories", domain.NewDocumentFrom("categories", []any{"http://a.example", "http://b.example"}), ""},
		{"plain category", domain.NewDocumentFrom("categories", []any{"news"}), ""},
		{"no scheme", domain.NewDocumentFrom("url", "example.org"), ""},
		{"foreign scheme", domain.NewDocumentFrom("url", "ftp://example.org"), ""},
		{"nothing", domain.NewDocumentFrom("title", "t"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Target(tt.doc)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	doc := domain.NewDocumentFrom(
		"username", "johndoe",
		"password", "s3cr3t",
		"title", "A title",
		"description", "A body",
		"categories", []any{"http://example.org"},
		"tags", []any{"one", "two", "three"},
	)
	assert.Equal(t,
		"username=johndoe&password=s3cr3t&title=A%20title&description=A%20body&tags=one&tags=two&tags=three",
		Encode(doc))
}

func TestEncode_Scalars(t *testing.T) {
	doc := domain.NewDocumentFrom(
		"url", "http://example.org",
		"n", int64(42),
		"f", 1.5,
		"b", true,
		"j", json.Number("7"),
		"obj", map[string]any{"a": 1},
		"empty", []any{},
		"nil", nil,
		"amp", "a&b=c+d",
	)
	assert.Equal(t, "n=42&f=1.5&b=true&j=7&obj=&nil=&amp=a%26b%3Dc%2Bd", Encode(doc))
}

func TestRelay_Dispatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	type received struct {
		method      string
		contentType string
		body        string
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{r.Method, r.Header.Get("Content-Type"), string(body)}
		_, _ = w.Write([]byte("thanks"))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var events []*domain.RelayEvent
	r := New(
		WithClient(srv.Client()),
		WithHooks(domain.Hooks{OnRelay: func(_ context.Context, e *domain.RelayEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}}),
	)

	ctx, cancel := context.WithCancel(domain.WithRequestID(context.Background(), "req-1"))
	doc := domain.NewDocumentFrom("title", "A title", "url", srv.URL+"/hook")
	require.True(t, r.Dispatch(ctx, doc))
	cancel()
	r.Wait()
	srv.Client().CloseIdleConnections()

	req := <-got
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, ContentType, req.contentType)
	assert.Equal(t, "title=A%20title", req.body)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, http.StatusOK, events[0].StatusCode)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.NoError(t, events[0].Err)
}

func TestRelay_DispatchSkipsWithoutTarget(t *testing.T) {
	calls := 0
	r := New(WithClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("unexpected")
	})}))

	assert.False(t, r.Dispatch(context.Background(), nil))
	assert.False(t, r.Dispatch(context.Background(), domain.NewDocumentFrom("categories", []any{"news"})))
	r.Wait()
	assert.Zero(t, calls)
}

func TestRelay_FailureIsSwallowed(t *testing.T) {
	var relayErr error
	r := New(
		WithClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})}),
		WithHooks(domain.Hooks{OnRelay: func(_ context.Context, e *domain.RelayEvent) { relayErr = e.Err }}),
	)

	require.True(t, r.Dispatch(context.Background(), domain.NewDocumentFrom("url", "http://example.org")))
	r.Wait()
	assert.ErrorContains(t, relayErr, "connection refused")
}
