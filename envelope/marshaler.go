package envelope

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidArgument is returned for absent payloads, absent envelopes, an
// empty type name, or an absent body, before any encode or decode work
// begins.
var ErrInvalidArgument = errors.New("envelope: invalid argument")

// Encoding is the payload codec the marshaler delegates to. *codec.Options
// satisfies it; accepting the interface here keeps this package free of a
// dependency on the codec package.
type Encoding interface {
	MarshalValue(v any) ([]byte, error)
	UnmarshalValue(data []byte, ptr any) error
}

// Marshaler performs symmetric wrap/unwrap of domain payloads using a type
// registry and a composed encoding. Build once, share freely.
type Marshaler struct {
	registry *TypeRegistry
	encoding Encoding
}

// NewMarshaler binds a registry and an encoding.
func NewMarshaler(registry *TypeRegistry, encoding Encoding) *Marshaler {
	return &Marshaler{registry: registry, encoding: encoding}
}

// Serialize wraps payload into an envelope. It fails when payload is nil,
// when its concrete type was never registered, or when encoding produces an
// empty wire value.
func (m *Marshaler) Serialize(payload any) (*Envelope, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidArgument)
	}
	name, err := m.registry.NameOf(payload)
	if err != nil {
		return nil, err
	}
	body, err := m.encoding.MarshalValue(payload)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("envelope: encoding %q produced an empty body", name)
	}
	return &Envelope{Type: name, Body: body}, nil
}

// Deserialize unwraps an envelope into a fresh value of its registered
// type. It fails when env is nil, its type name empty, its body absent
// (nil, as opposed to an empty-but-present value), or its name unknown.
func (m *Marshaler) Deserialize(env *Envelope) (any, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidArgument)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: empty envelope type", ErrInvalidArgument)
	}
	if env.Body == nil {
		return nil, fmt.Errorf("%w: absent envelope body", ErrInvalidArgument)
	}
	t, err := m.registry.TypeOf(env.Type)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	if err := m.encoding.UnmarshalValue(env.Body, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
