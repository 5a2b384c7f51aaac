package relay

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/asaskevich/govalidator"
)

// excluded fields carry the relay target and are never part of the body.
var excluded = map[string]bool{
	domain.FieldURL:        true,
	domain.FieldCategories: true,
}

// Target returns the relay URL of doc: the url field if set, otherwise the
// categories field. A one-element list counts as its element. The candidate
// must be an absolute http or https URL.
func Target(doc *domain.Document) (string, bool) {
	candidate := firstString(doc, domain.FieldURL)
	if candidate == "" {
		candidate = firstString(doc, domain.FieldCategories)
	}
	if !IsRelayURL(candidate) {
		return "", false
	}
	return candidate, true
}

// IsRelayURL reports whether s is an absolute http(s) URL with a host.
func IsRelayURL(s string) bool {
	if !govalidator.IsRequestURL(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func firstString(doc *domain.Document, key string) string {
	v, ok := doc.Get(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) == 1 {
			return t[0]
		}
	case []any:
		if len(t) == 1 {
			s, _ := t[0].(string)
			return s
		}
	}
	return ""
}

// Encode renders doc as an application/x-www-form-urlencoded body.
// Fields keep document order, lists repeat their key, spaces become %20, and
// values without a scalar form (maps, nil) are sent empty. Empty lists are skipped.
func Encode(doc *domain.Document) string {
	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(key))
		b.WriteByte('=')
		b.WriteString(escape(value))
	}

	doc.Range(func(key string, value any) bool {
		if excluded[key] {
			return true
		}
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				write(key, scalar(item))
			}
		case []string:
			for _, item := range v {
				write(key, item)
			}
		default:
			write(key, scalar(v))
		}
		return true
	})
	return b.String()
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	}
	return ""
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
