package runtime

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/aretw0/wphook/pkg/domain"
)

// authenticate runs the gate for doc. Without an authenticator it is a no-op and
// the credentials stay in the document. With one, the credentials are always
// removed before it is called; they are never forwarded to handlers.
func authenticate(ctx context.Context, auth domain.Authenticator, doc *domain.Document) error {
	if auth == nil {
		return nil
	}

	username := credential(doc, domain.FieldUsername)
	password := credential(doc, domain.FieldPassword)
	doc.Delete(domain.FieldUsername)
	doc.Delete(domain.FieldPassword)

	identity, err := auth(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	if !truthy(identity) {
		return fmt.Errorf("%w: user %q", domain.ErrAuthRejected, username)
	}
	if isObject(identity) {
		doc.Set(domain.FieldUser, identity)
	}
	return nil
}

func credential(doc *domain.Document, key string) string {
	v, ok := doc.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// truthy reports whether v counts as an accepted authentication result.
// nil, false, "", numeric zero and nil references are falsy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// isObject reports whether an identity should be attached to the document.
func isObject(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}
