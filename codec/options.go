// Package codec implements the wire codecs: the strict two-case result
// schema, the $type-discriminated polymorphic fault codec, and the envelope
// codecs used by the framed transport.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"result-rpc/fault"
)

// ErrNilValue is returned when a payload encodes to or decodes from the
// JSON null literal. The success case of a result always holds a value;
// null is not a value.
var ErrNilValue = errors.New("codec: null is not a valid payload")

// ValueCodec overrides encoding for one concrete payload type. Caller
// codecs take precedence over the default JSON encoding.
type ValueCodec struct {
	// Type is the concrete type the codec handles (pointer stripped).
	Type reflect.Type
	// Marshal encodes a value of Type.
	Marshal func(v any) ([]byte, error)
	// Unmarshal decodes into a pointer to Type.
	Unmarshal func(data []byte, v any) error
}

// Options is the immutable serialization configuration: the merged fault
// catalog plus caller-registered value codecs and formatting. Build once
// with NewOptions and share freely; an Options value is never mutated after
// construction and is safe for concurrent use.
type Options struct {
	catalog *fault.Catalog
	values  map[reflect.Type]ValueCodec
	indent  string
}

// Option configures NewOptions.
type Option func(*builder)

type builder struct {
	resolvers []fault.Resolver
	values    []ValueCodec
	indent    string
}

// WithResolvers contributes fault discriminator entries. May be repeated;
// contribution order does not affect the merged catalog.
func WithResolvers(rs ...fault.Resolver) Option {
	return func(b *builder) { b.resolvers = append(b.resolvers, rs...) }
}

// WithValueCodec registers a caller codec for one payload type. It wins
// over the default JSON encoding for that type.
func WithValueCodec(vc ValueCodec) Option {
	return func(b *builder) { b.values = append(b.values, vc) }
}

// WithIndent sets the indentation used when encoding payload values.
// Default is compact output.
func WithIndent(indent string) Option {
	return func(b *builder) { b.indent = indent }
}

// NewOptions builds a configuration. Catalog conflicts surface here, before
// any encode or decode work happens.
func NewOptions(opts ...Option) (*Options, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}
	catalog, err := fault.NewCatalog(b.resolvers...)
	if err != nil {
		return nil, err
	}
	values := make(map[reflect.Type]ValueCodec, len(b.values))
	for _, vc := range b.values {
		if vc.Type == nil {
			return nil, errors.New("codec: value codec with nil type")
		}
		values[vc.Type] = vc
	}
	return &Options{catalog: catalog, values: values, indent: b.indent}, nil
}

// Compose returns a new Options whose catalog additionally merges the given
// resolvers. The receiver is not modified; caller value codecs and
// formatting carry over unchanged. Composing the same resolvers again is
// harmless because duplicate entries are skipped.
func (o *Options) Compose(rs ...fault.Resolver) (*Options, error) {
	merged := make([]fault.Resolver, 0, len(rs)+1)
	merged = append(merged, catalogResolver{o.catalog})
	merged = append(merged, rs...)
	catalog, err := fault.NewCatalog(merged...)
	if err != nil {
		return nil, err
	}
	return &Options{catalog: catalog, values: o.values, indent: o.indent}, nil
}

// catalogResolver re-contributes an existing catalog's entries so Compose
// can aggregate without mutating the frozen catalog.
type catalogResolver struct {
	c *fault.Catalog
}

func (r catalogResolver) Faults() []fault.Entry {
	entries := make([]fault.Entry, 0, r.c.Len())
	for _, tag := range r.c.Tags() {
		if e, ok := r.c.Resolve(tag); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Catalog returns the merged discriminator catalog.
func (o *Options) Catalog() *fault.Catalog { return o.catalog }

// MarshalValue encodes a payload, preferring a caller codec for its type.
func (o *Options) MarshalValue(v any) ([]byte, error) {
	if v != nil {
		t := reflect.TypeOf(v)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if vc, ok := o.values[t]; ok {
			return vc.Marshal(v)
		}
	}
	var data []byte
	var err error
	if o.indent != "" {
		data, err = json.MarshalIndent(v, "", o.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	if bytes.Equal(data, []byte("null")) {
		return nil, ErrNilValue
	}
	return data, nil
}

// UnmarshalValue decodes into ptr, preferring a caller codec for its type.
func (o *Options) UnmarshalValue(data []byte, ptr any) error {
	t := reflect.TypeOf(ptr)
	if t == nil || t.Kind() != reflect.Ptr {
		return fmt.Errorf("codec: decode target must be a non-nil pointer, got %T", ptr)
	}
	if vc, ok := o.values[t.Elem()]; ok {
		return vc.Unmarshal(data, ptr)
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNilValue
	}
	return json.Unmarshal(data, ptr)
}
