package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/aretw0/wphook/pkg/xmlrpc"
)

// Positions of the newPost parameters: blogId, username, password, content.
const (
	paramUsername = 1
	paramPassword = 2
	paramContent  = 3
)

// memberRenames maps metaWeblog member names to document keys.
var memberRenames = map[string]string{
	"mt_keywords": domain.FieldTags,
}

// NormalizePost builds the canonical document from the newPost params.
// The blog ID is ignored. Credentials come first, then the content members in
// wire order.
func NormalizePost(params []any) (*domain.Document, error) {
	if len(params) <= paramContent {
		return nil, fmt.Errorf("%w: expected 4 params, got %d", domain.ErrMalformedPayload, len(params))
	}

	content, ok := params[paramContent].(xmlrpc.Fields)
	if !ok {
		return nil, fmt.Errorf("%w: content param is %T, not a struct", domain.ErrMalformedPayload, params[paramContent])
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content struct has no members", domain.ErrMalformedPayload)
	}

	doc := domain.NewDocument()
	doc.Set(domain.FieldUsername, xmlrpc.Plain(params[paramUsername]))
	doc.Set(domain.FieldPassword, xmlrpc.Plain(params[paramPassword]))

	for _, member := range content {
		key := member.Name
		if renamed, ok := memberRenames[key]; ok {
			key = renamed
		}

		value := member.Value
		if inner, ok := enclosure(value); ok {
			doc.Set(key, xmlrpc.Plain(inner))
			continue
		}
		if key == domain.FieldDescription {
			value = decodeDescription(value)
		}
		doc.Set(key, xmlrpc.Plain(value))
	}

	return doc, nil
}

// enclosure unwraps a struct shaped like {data: {value: X}} to X.
func enclosure(v any) (any, bool) {
	fields, ok := v.(xmlrpc.Fields)
	if !ok {
		return nil, false
	}
	data, ok := fields.Get("data")
	if !ok {
		return nil, false
	}
	inner, ok := data.(xmlrpc.Fields)
	if !ok {
		return nil, false
	}
	value, ok := inner.Get("value")
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// decodeDescription turns a JSON object body into a map and trims anything else.
// Numbers stay json.Number so large integers survive.
func decodeDescription(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return trimmed
	}
	if _, err := dec.Token(); err != io.EOF {
		return trimmed
	}
	return obj
}
