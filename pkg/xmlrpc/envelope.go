package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/wphook/pkg/domain"
)

// Method names understood by the dispatcher.
const (
	MethodSupportedMethods = "mt.supportedMethods"
	MethodGetRecentPosts   = "metaWeblog.getRecentPosts"
	MethodNewPost          = "metaWeblog.newPost"
)

// Envelope is a decoded method call.
// Params hold normalized values: string, int64, bool, float64, []any or Fields.
type Envelope struct {
	MethodName string
	Params     []any
}

type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName *string  `xml:"methodName"`
	Params     *Params  `xml:"params"`
}

// Params holds the parameters for the method call.
type Params struct {
	Param []*Param `xml:"param"`
}

// Param is a single parameter.
type Param struct {
	Value *Value `xml:"value"`
}

// Value represents an XML-RPC value as it appears on the wire.
// Typed children are pointers so that an empty <string/> differs from an untyped value.
type Value struct {
	I4       *string `xml:"i4"`
	Int      *string `xml:"int"`
	Boolean  *string `xml:"boolean"`
	String   *string `xml:"string"`
	Double   *string `xml:"double"`
	DateTime *string `xml:"dateTime.iso8601"`
	Base64   *string `xml:"base64"`
	Struct   *Struct `xml:"struct"`
	Array    *Array  `xml:"array"`
	Text     string  `xml:",chardata"`
}

// Struct represents an XML-RPC struct.
type Struct struct {
	Members []*Member `xml:"member"`
}

// Member represents an XML-RPC struct member.
type Member struct {
	Name  string `xml:"name"`
	Value *Value `xml:"value"`
}

// Array represents an XML-RPC array.
type Array struct {
	Data []*Value `xml:"data>value"`
}

// Field is one normalized struct member.
type Field struct {
	Name  string
	Value any
}

// Fields is a normalized struct. Member order is preserved.
type Fields []Field

// Get returns the value of the first member called name.
func (f Fields) Get(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Map converts the struct, and any nested structs, to plain maps.
func (f Fields) Map() map[string]any {
	out := make(map[string]any, len(f))
	for _, field := range f {
		out[field.Name] = Plain(field.Value)
	}
	return out
}

// Plain replaces every Fields inside v with a map[string]any.
func Plain(v any) any {
	switch t := v.(type) {
	case Fields:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	}
	return v
}

// DecodeMethodCall reads a methodCall document from r.
// Any parse error, a foreign root element or a missing methodName yields
// domain.ErrMalformedEnvelope.
func DecodeMethodCall(r io.Reader) (*Envelope, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var call methodCall
	if err := dec.Decode(&call); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}
	if call.MethodName == nil || strings.TrimSpace(*call.MethodName) == "" {
		return nil, fmt.Errorf("%w: missing methodName", domain.ErrMalformedEnvelope)
	}

	env := &Envelope{MethodName: strings.TrimSpace(*call.MethodName)}
	if call.Params != nil {
		env.Params = make([]any, 0, len(call.Params.Param))
		for _, p := range call.Params.Param {
			env.Params = append(env.Params, Normalize(p.Value))
		}
	}
	return env, nil
}

// Normalize collapses a wire value into its Go form.
//
// An untyped <value>x</value> and a typed <value><string>x</string></value>
// both become "x". Integers become int64, booleans bool, doubles float64,
// arrays []any and structs Fields. Typed scalars that fail to parse keep their
// raw text. A nil value normalizes to nil.
func Normalize(v *Value) any {
	if v == nil {
		return nil
	}

	switch {
	case v.Struct != nil:
		fields := make(Fields, 0, len(v.Struct.Members))
		for _, m := range v.Struct.Members {
			if m == nil {
				continue
			}
			fields = append(fields, Field{Name: strings.TrimSpace(m.Name), Value: Normalize(m.Value)})
		}
		return fields
	case v.Array != nil:
		items := make([]any, 0, len(v.Array.Data))
		for _, item := range v.Array.Data {
			items = append(items, Normalize(item))
		}
		return items
	case v.Int != nil:
		return parseInt(*v.Int)
	case v.I4 != nil:
		return parseInt(*v.I4)
	case v.Boolean != nil:
		if b, err := strconv.ParseBool(strings.TrimSpace(*v.Boolean)); err == nil {
			return b
		}
		return *v.Boolean
	case v.Double != nil:
		if f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64); err == nil {
			return f
		}
		return *v.Double
	case v.String != nil:
		return *v.String
	case v.DateTime != nil:
		return strings.TrimSpace(*v.DateTime)
	case v.Base64 != nil:
		return strings.TrimSpace(*v.Base64)
	}
	return v.Text
}

func parseInt(raw string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return n
	}
	return raw
}

// charsetReader accepts the spellings of UTF-8 and ASCII that encoding/xml rejects.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf8", "us-ascii", "ascii":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
