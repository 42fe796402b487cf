package envelope

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotRegistered is the single not-found kind for both lookup directions:
// an unknown name on deserialize and an unregistered concrete type on
// serialize. The message states which direction failed.
var ErrNotRegistered = errors.New("envelope: type not registered")

// ErrDuplicateType is returned when a name or type is registered twice.
var ErrDuplicateType = errors.New("envelope: duplicate type registration")

// TypeRegistry is the bidirectional name <-> concrete type map used to
// resolve envelope payloads. Build it once at startup with explicit
// Register calls; it is read-only afterwards and safe for unsynchronized
// concurrent reads.
type TypeRegistry struct {
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds a payload type, keyed by its fully-qualified name
// (package path plus type name). The prototype is only inspected for its
// type; pass a zero value such as &PingRequest{}. Pointers are stripped;
// the registered type must be a named struct.
func (r *TypeRegistry) Register(prototype any) error {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return errors.New("envelope: cannot register nil prototype")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return fmt.Errorf("envelope: prototype must be a named struct, got %s", t)
	}
	name := qualifiedName(t)
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	r.byName[name] = t
	r.byType[t] = name
	return nil
}

// RegisterAll registers a batch of prototypes, stopping at the first error.
// This is the intended startup surface: one call site listing every wire
// payload the process understands.
func (r *TypeRegistry) RegisterAll(prototypes ...any) error {
	for _, p := range prototypes {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// NameOf returns the registered name for payload's exact concrete type.
func (r *TypeRegistry) NameOf(payload any) (string, error) {
	t := reflect.TypeOf(payload)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name, ok := r.byType[t]
	if !ok {
		return "", fmt.Errorf("%w: no name for type %T", ErrNotRegistered, payload)
	}
	return name, nil
}

// TypeOf returns the registered type for a wire name.
func (r *TypeRegistry) TypeOf(name string) (reflect.Type, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no type for name %q", ErrNotRegistered, name)
	}
	return t, nil
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int { return len(r.byName) }

func qualifiedName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
