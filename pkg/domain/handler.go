package domain

import (
	"context"
	"errors"
	"fmt"
)

// AuthCategory is the reserved category name for the authenticator of a
// category registration. No handler may be registered under it.
const AuthCategory = "auth"

// DefaultHandlerName labels the handler used when no category was resolved.
const DefaultHandlerName = "default"

// Handler receives a decoded post and returns its transformed form.
// Returning a nil document with a nil error accepts the post without relaying it.
type Handler func(ctx context.Context, doc *Document) (*Document, error)

// Authenticator checks the credentials of a post.
// A nil or falsy result rejects the post. A map or struct result is treated as
// the identity and attached to the document under "user".
type Authenticator func(ctx context.Context, username, password string) (any, error)

// PassThrough is the handler used when nothing else is registered.
func PassThrough(_ context.Context, doc *Document) (*Document, error) {
	return doc, nil
}

// Registration describes which handlers receive posts.
// It is one of DefaultHandler, AuthenticatedHandler or CategoryHandlers.
type Registration interface {
	registration()
}

// DefaultHandler routes every post to a single handler.
type DefaultHandler struct {
	Handler Handler
}

// AuthenticatedHandler routes every post to a single handler after Auth accepts it.
type AuthenticatedHandler struct {
	Auth    Authenticator
	Handler Handler
}

// CategoryHandlers routes posts by "cat:<name>" category tokens.
type CategoryHandlers struct {
	// Handlers maps a category name to its handler.
	Handlers map[string]Handler
	// Auth gates posts that resolved to at least one category handler.
	Auth Authenticator
	// Default receives posts that resolved to no category handler.
	// When nil those posts go to PassThrough.
	Default Handler
	// FallbackAuth gates posts that resolved to no category handler.
	FallbackAuth Authenticator
}

func (DefaultHandler) registration()       {}
func (AuthenticatedHandler) registration() {}
func (CategoryHandlers) registration()     {}

// ErrInvalidRegistration is returned by Seal for unusable registrations.
var ErrInvalidRegistration = errors.New("invalid handler registration")

// Seal validates reg and returns a copy that no caller can mutate afterwards.
// A nil registration is valid and routes everything to PassThrough.
func Seal(reg Registration) (Registration, error) {
	switch r := reg.(type) {
	case nil:
		return DefaultHandler{Handler: PassThrough}, nil
	case DefaultHandler:
		if r.Handler == nil {
			r.Handler = PassThrough
		}
		return r, nil
	case AuthenticatedHandler:
		if r.Handler == nil {
			r.Handler = PassThrough
		}
		return r, nil
	case CategoryHandlers:
		handlers := make(map[string]Handler, len(r.Handlers))
		for name, h := range r.Handlers {
			if name == "" {
				return nil, fmt.Errorf("%w: empty category name", ErrInvalidRegistration)
			}
			if name == AuthCategory {
				return nil, fmt.Errorf("%w: category %q is reserved", ErrInvalidRegistration, AuthCategory)
			}
			if h == nil {
				return nil, fmt.Errorf("%w: category %q has no handler", ErrInvalidRegistration, name)
			}
			handlers[name] = h
		}
		r.Handlers = handlers
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidRegistration, reg)
	}
}
