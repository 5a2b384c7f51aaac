package domain

import (
	"encoding/json"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field names the pipeline gives meaning to.
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldUser        = "user"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategories  = "categories"
	FieldTags        = "tags"
	FieldURL         = "url"
)

// Document is the canonical form of a decoded post.
// Keys keep their insertion order, which is also the order the relay encodes them in.
//
// A Document is safe for concurrent use. Fan-out handlers share one instance, so a
// handler that wants a modified copy should Clone it and return the clone.
type Document struct {
	mu     sync.RWMutex
	fields *orderedmap.OrderedMap[string, any]
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{fields: orderedmap.New[string, any]()}
}

// NewDocumentFrom builds a document from alternating key/value pairs.
// It panics on an odd number of arguments or a non-string key.
func NewDocumentFrom(pairs ...any) *Document {
	if len(pairs)%2 != 0 {
		panic("domain: NewDocumentFrom needs key/value pairs")
	}
	doc := NewDocument()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("domain: document key %v is not a string", pairs[i]))
		}
		doc.Set(key, pairs[i+1])
	}
	return doc
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.Get(key)
}

// Set stores value under key. Existing keys keep their position.
func (d *Document) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (d *Document) Delete(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, present := d.fields.Delete(key)
	return present
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Len returns the number of fields.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.Len()
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, d.fields.Len())
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for every field in order until fn returns false.
// fn runs on a snapshot, so it may call back into the document.
func (d *Document) Range(fn func(key string, value any) bool) {
	d.mu.RLock()
	snapshot := make([]*orderedmap.Pair[string, any], 0, d.fields.Len())
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		snapshot = append(snapshot, &orderedmap.Pair[string, any]{Key: pair.Key, Value: pair.Value})
	}
	d.mu.RUnlock()

	for _, pair := range snapshot {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// String returns the value under key if it is a string.
func (d *Document) String(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a copy with the same keys in the same order.
// Values are copied shallowly.
func (d *Document) Clone() *Document {
	out := NewDocument()
	d.Range(func(key string, value any) bool {
		out.fields.Set(key, value)
		return true
	})
	return out
}

// Map returns the fields as a plain map. Order is lost.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, d.Len())
	d.Range(func(key string, value any) bool {
		out[key] = value
		return true
	})
	return out
}

// MarshalJSON encodes the document as a JSON object in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping its key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, fields); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = fields
	return nil
}
