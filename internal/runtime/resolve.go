package runtime

import (
	"regexp"

	"github.com/aretw0/wphook/pkg/domain"
)

// routingToken matches category strings used only to pick handlers.
var routingToken = regexp.MustCompile(`^cat:(.+)$`)

type namedHandler struct {
	name string
	fn   domain.Handler
}

// resolution is the request-scoped handler set plus the authenticator gating it.
type resolution struct {
	handlers []namedHandler
	auth     domain.Authenticator
}

// resolve picks the handlers for doc. When a routing token resolves, the
// categories field is removed from doc because it only carried routing data.
// Unknown tokens are dropped without error.
func resolve(reg domain.Registration, doc *domain.Document) resolution {
	switch r := reg.(type) {
	case domain.DefaultHandler:
		return single(r.Handler, nil)
	case domain.AuthenticatedHandler:
		return single(r.Handler, r.Auth)
	case domain.CategoryHandlers:
		var handlers []namedHandler
		for _, name := range routingNames(doc) {
			if h, ok := r.Handlers[name]; ok {
				handlers = append(handlers, namedHandler{name: name, fn: h})
			}
		}
		if len(handlers) > 0 {
			doc.Delete(domain.FieldCategories)
			return resolution{handlers: handlers, auth: r.Auth}
		}
		return single(r.Default, r.FallbackAuth)
	}
	// Seal rejects every other registration type.
	return single(nil, nil)
}

func single(h domain.Handler, auth domain.Authenticator) resolution {
	if h == nil {
		h = domain.PassThrough
	}
	return resolution{
		handlers: []namedHandler{{name: domain.DefaultHandlerName, fn: h}},
		auth:     auth,
	}
}

// routingNames returns the names of the cat:<name> tokens in document order.
func routingNames(doc *domain.Document) []string {
	raw, ok := doc.Get(domain.FieldCategories)
	if !ok {
		return nil
	}

	var categories []string
	switch v := raw.(type) {
	case string:
		categories = []string{v}
	case []string:
		categories = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				categories = append(categories, s)
			}
		}
	}

	var names []string
	for _, category := range categories {
		if m := routingToken.FindStringSubmatch(category); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}
