package fault

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

type notFound struct {
	Base
	Key string `json:"key"`
}

type conflict struct {
	Base
}

func resolverA() Resolver {
	return ResolverFunc(func() []Entry {
		return []Entry{NewEntry("NotFound", &notFound{})}
	})
}

func resolverB() Resolver {
	return ResolverFunc(func() []Entry {
		return []Entry{NewEntry("Conflict", &conflict{})}
	})
}

func TestCatalogMerge(t *testing.T) {
	c, err := NewCatalog(resolverA(), resolverB())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	for _, tag := range []string{"NotFound", "Conflict", ValidationTag} {
		if _, ok := c.Resolve(tag); !ok {
			t.Errorf("Merged catalog missing %q", tag)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", c.Len())
	}
}

func TestCatalogOrderIndependence(t *testing.T) {
	ab, err := NewCatalog(resolverA(), resolverB())
	if err != nil {
		t.Fatalf("NewCatalog(A, B) failed: %v", err)
	}
	ba, err := NewCatalog(resolverB(), resolverA())
	if err != nil {
		t.Fatalf("NewCatalog(B, A) failed: %v", err)
	}

	tagsAB, tagsBA := ab.Tags(), ba.Tags()
	sort.Strings(tagsAB)
	sort.Strings(tagsBA)
	if !reflect.DeepEqual(tagsAB, tagsBA) {
		t.Errorf("Merge depends on order: %v vs %v", tagsAB, tagsBA)
	}
	for _, tag := range tagsAB {
		ea, _ := ab.Resolve(tag)
		eb, _ := ba.Resolve(tag)
		if reflect.TypeOf(ea.New()) != reflect.TypeOf(eb.New()) {
			t.Errorf("Tag %q resolves to different types depending on order", tag)
		}
	}
}

func TestCatalogDuplicateEntrySkipped(t *testing.T) {
	c, err := NewCatalog(resolverA(), resolverA())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if c.Len() != 2 { // NotFound + built-in ValidationFailure
		t.Errorf("Duplicate registration should be skipped, got %d entries", c.Len())
	}
}

func TestCatalogTagConflict(t *testing.T) {
	conflicting := ResolverFunc(func() []Entry {
		return []Entry{NewEntry("NotFound", &conflict{})}
	})
	_, err := NewCatalog(resolverA(), conflicting)
	if !errors.Is(err, ErrTagConflict) {
		t.Errorf("Expected ErrTagConflict for one tag with two types, got %v", err)
	}
}

func TestCatalogTypeUnderTwoTags(t *testing.T) {
	second := ResolverFunc(func() []Entry {
		return []Entry{NewEntry("Missing", &notFound{})}
	})
	_, err := NewCatalog(resolverA(), second)
	if !errors.Is(err, ErrTagConflict) {
		t.Errorf("Expected ErrTagConflict for one type under two tags, got %v", err)
	}
}

func TestCatalogBuiltInIdempotent(t *testing.T) {
	validation := ResolverFunc(func() []Entry {
		return []Entry{NewEntry(ValidationTag, &ValidationFailure{})}
	})
	c, err := NewCatalog(validation)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Built-in entry duplicated: %d entries", c.Len())
	}
}

func TestCatalogTagFor(t *testing.T) {
	c, err := NewCatalog(resolverA())
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	tag, ok := c.TagFor(&notFound{})
	if !ok || tag != "NotFound" {
		t.Errorf("TagFor mismatch: got %q, ok=%v", tag, ok)
	}
	if _, ok := c.TagFor(&conflict{}); ok {
		t.Error("TagFor should miss for unregistered types")
	}
}

func TestEntryNewReturnsFreshValue(t *testing.T) {
	e := NewEntry("NotFound", &notFound{})
	a := e.New().(*notFound)
	b := e.New().(*notFound)
	a.Key = "users/1"
	if b.Key != "" {
		t.Error("Entry.New must return independent values")
	}
}
