package fault

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrTagConflict is returned when two contributors register the same tag
// for different concrete types. Silent last-wins would make decode results
// depend on registration order, so the conflict is fatal at build time.
var ErrTagConflict = errors.New("fault: tag registered for conflicting types")

// ErrUnknownTag is returned when a wire discriminator resolves to no
// catalog entry.
var ErrUnknownTag = errors.New("fault: unknown discriminator tag")

// Entry binds a wire tag to a concrete fault type.
type Entry struct {
	Tag     string
	rtype   reflect.Type
	factory func() Fault
}

// NewEntry builds a catalog entry from a prototype value. The prototype is
// only inspected for its type; pass a zero value, e.g.
//
//	fault.NewEntry("QuotaExceeded", &QuotaExceeded{})
//
// The prototype must be a pointer to a struct implementing Fault.
func NewEntry(tag string, prototype Fault) Entry {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("fault: prototype for tag %q must be a pointer to a struct, got %T", tag, prototype))
	}
	elem := t.Elem()
	return Entry{
		Tag:   tag,
		rtype: elem,
		factory: func() Fault {
			return reflect.New(elem).Interface().(Fault)
		},
	}
}

// New returns a fresh zero value of the entry's concrete type.
func (e Entry) New() Fault { return e.factory() }

// Resolver contributes discriminator entries to a catalog. Contributors are
// independent; contribution order must not change the merged catalog.
type Resolver interface {
	Faults() []Entry
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func() []Entry

func (f ResolverFunc) Faults() []Entry { return f() }

// Catalog is the merged, frozen discriminator set for one configuration.
// It is built once and safe for unsynchronized concurrent reads.
type Catalog struct {
	byTag     map[string]Entry
	tagByType map[reflect.Type]string
}

// NewCatalog merges the entries of all resolvers plus the built-in
// ValidationFailure entry. Registering the same (tag, type) pair twice is
// skipped idempotently; a tag shared by two types, or a type registered
// under two tags, is ErrTagConflict. Rejecting both keeps the merge
// order-independent.
func NewCatalog(resolvers ...Resolver) (*Catalog, error) {
	c := &Catalog{
		byTag:     make(map[string]Entry),
		tagByType: make(map[reflect.Type]string),
	}
	for _, r := range resolvers {
		for _, e := range r.Faults() {
			if err := c.add(e); err != nil {
				return nil, err
			}
		}
	}
	// Built-in entry, skipped if a contributor already registered the type.
	if _, ok := c.tagByType[reflect.TypeOf(ValidationFailure{})]; !ok {
		if err := c.add(NewEntry(ValidationTag, &ValidationFailure{})); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(e Entry) error {
	if existing, ok := c.byTag[e.Tag]; ok {
		if existing.rtype == e.rtype {
			return nil
		}
		return fmt.Errorf("%w: tag %q maps to both %s and %s",
			ErrTagConflict, e.Tag, existing.rtype, e.rtype)
	}
	if tag, ok := c.tagByType[e.rtype]; ok {
		// Two tags for one type would make the encoded tag depend on
		// registration order. Rejected for the same reason as tag conflicts.
		return fmt.Errorf("%w: type %s registered under both %q and %q",
			ErrTagConflict, e.rtype, tag, e.Tag)
	}
	c.byTag[e.Tag] = e
	c.tagByType[e.rtype] = e.Tag
	return nil
}

// Resolve looks up a wire tag.
func (c *Catalog) Resolve(tag string) (Entry, bool) {
	e, ok := c.byTag[tag]
	return e, ok
}

// TagFor returns the tag registered for f's exact concrete type.
func (c *Catalog) TagFor(f Fault) (string, bool) {
	t := reflect.TypeOf(f)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	tag, ok := c.tagByType[t]
	return tag, ok
}

// Len returns the number of registered entries.
func (c *Catalog) Len() int { return len(c.byTag) }

// Tags returns all registered tags. Order is unspecified.
func (c *Catalog) Tags() []string {
	tags := make([]string, 0, len(c.byTag))
	for tag := range c.byTag {
		tags = append(tags, tag)
	}
	return tags
}
