package jsonld_test

import (
	"errors"
	"fmt"
	"testing"

	ld "github.com/blast-hardcheese/json-ld"
	"github.com/blast-hardcheese/json-ld/value"
)

func TestContextErrors(t *testing.T) {
	tests := []struct {
		name    string
		context string
		err     error
	}{
		{
			name:    "scalar context entry",
			context: `[42]`,
			err:     ld.ErrInvalidLocalContext,
		},
		{
			name:    "keyword redefinition",
			context: `{"@id":"http://example.org/id"}`,
			err:     ld.ErrKeywordRedefinition,
		},
		{
			name:    "cyclic term definitions",
			context: `{"a":"b","b":"a"}`,
			err:     ld.ErrCyclicIRIMapping,
		},
		{
			name:    "protected term redefined",
			context: `[{"@protected":true,"name":"http://a.example/name"},{"name":"http://b.example/name"}]`,
			err:     ld.ErrProtectedTermRedefinition,
		},
		{
			name:    "protected terms survive nullification attempts",
			context: `[{"@protected":true,"name":"http://a.example/name"},null]`,
			err:     ld.ErrInvalidContextNullification,
		},
		{
			name:    "base must be a string",
			context: `{"@base":true}`,
			err:     ld.ErrInvalidBaseIRI,
		},
		{
			name:    "vocab must be a string",
			context: `{"@vocab":true}`,
			err:     ld.ErrInvalidVocabMapping,
		},
		{
			name:    "direction outside ltr and rtl",
			context: `{"@direction":"sideways"}`,
			err:     ld.ErrInvalidBaseDirection,
		},
		{
			name:    "default language must be a string",
			context: `{"@language":5}`,
			err:     ld.ErrInvalidDefaultLanguage,
		},
		{
			name:    "version other than 1.1",
			context: `{"@version":1.2}`,
			err:     ld.ErrInvalidVersionValue,
		},
		{
			name:    "list and set containers are exclusive",
			context: `{"t":{"@id":"http://example.org/t","@container":["@list","@set"]}}`,
			err:     ld.ErrInvalidContainerMapping,
		},
		{
			name:    "reverse property with a nest mapping",
			context: `{"t":{"@reverse":"http://example.org/t","@nest":"@nest"}}`,
			err:     ld.ErrInvalidReverseProperty,
		},
		{
			name:    "term resolving to a non-IRI",
			context: `{"t":{"@id":true}}`,
			err:     ld.ErrInvalidIRIMapping,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ld.NewProcessor()

			_, err := p.Context(value.MustParse(tc.context), "")
			if !errors.Is(err, tc.err) {
				t.Fatalf("got error: %v, want: %v", err, tc.err)
			}
		})
	}
}

func TestContextNullIsNil(t *testing.T) {
	p := ld.NewProcessor()

	res, err := p.Context(value.Null(), "")
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("expected nil context, got: %v", res)
	}
}

func TestContextIdenticalProtectedRedefinition(t *testing.T) {
	p := ld.NewProcessor()

	// redefining a protected term with the exact same definition is fine
	res, err := p.Context(value.MustParse(
		`[{"@protected":true,"name":"http://a.example/name"},{"name":"http://a.example/name"}]`), "")
	if err != nil {
		t.Fatal(err)
	}

	def, ok := res.Term("name")
	if !ok {
		t.Fatal("term name is not defined")
	}
	if def.IRI != "http://a.example/name" {
		t.Fatalf("got IRI %q", def.IRI)
	}
	if !def.Protected {
		t.Fatal("term lost its protection")
	}
}

func TestContextTermAccessors(t *testing.T) {
	p := ld.NewProcessor()

	res, err := p.Context(value.MustParse(
		`{"name":"http://example.org/name","knows":{"@id":"http://example.org/knows","@type":"@id"}}`), "")
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]string{}
	for term, def := range res.Terms() {
		seen[term] = def.IRI
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 terms, got: %v", seen)
	}

	def, ok := res.Term("knows")
	if !ok || def.Type != "@id" {
		t.Fatalf("got %+v, %v", def, ok)
	}
	if _, ok := res.Term("nope"); ok {
		t.Fatal("undefined term reported as present")
	}
}

func TestContextGraphContainerLD10(t *testing.T) {
	p := ld.NewProcessor(ld.With10Processing(true))

	_, err := p.Context(value.MustParse(
		`{"t":{"@id":"http://example.org/t","@container":"@graph"}}`), "")
	if !errors.Is(err, ld.ErrInvalidContainerMapping) {
		t.Fatalf("got error: %v", err)
	}
}

func TestContextImport(t *testing.T) {
	loader := MapLoader(map[string]string{
		"http://remote.example/base.json": `{"@context":{
			"name":"http://remote.example/name",
			"age":"http://remote.example/age"}}`,
	})
	p := ld.NewProcessor(ld.WithDocumentLoader(loader))

	res, err := p.Context(value.MustParse(
		`{"@import":"http://remote.example/base.json","name":"http://local.example/name"}`), "")
	if err != nil {
		t.Fatal(err)
	}

	// the importing context wins on conflicts
	name, _ := res.Term("name")
	if name.IRI != "http://local.example/name" {
		t.Fatalf("got %q", name.IRI)
	}
	age, ok := res.Term("age")
	if !ok || age.IRI != "http://remote.example/age" {
		t.Fatalf("got %+v, %v", age, ok)
	}
}

func TestContextImportInsideImport(t *testing.T) {
	loader := MapLoader(map[string]string{
		"http://remote.example/base.json": `{"@context":{"@import":"http://remote.example/other.json"}}`,
	})
	p := ld.NewProcessor(ld.WithDocumentLoader(loader))

	_, err := p.Context(value.MustParse(
		`{"@import":"http://remote.example/base.json"}`), "")
	if !errors.Is(err, ld.ErrInvalidContextEntry) {
		t.Fatalf("got error: %v", err)
	}
}

func TestContextImportLD10(t *testing.T) {
	p := ld.NewProcessor(ld.With10Processing(true))

	_, err := p.Context(value.MustParse(
		`{"@import":"http://remote.example/base.json"}`), "")
	if !errors.Is(err, ld.ErrInvalidContextEntry) {
		t.Fatalf("got error: %v", err)
	}
}

func TestContextRemoteChainOverflow(t *testing.T) {
	docs := make(map[string]string)
	for i := range 13 {
		docs[fmt.Sprintf("http://remote.example/c%d.json", i)] = fmt.Sprintf(
			`{"@context":"http://remote.example/c%d.json"}`, i+1)
	}
	p := ld.NewProcessor(ld.WithDocumentLoader(MapLoader(docs)))

	_, err := p.Context(value.MustParse(`"http://remote.example/c0.json"`), "")
	if !errors.Is(err, ld.ErrContextOverflow) {
		t.Fatalf("got error: %v", err)
	}
}

func TestContextRemoteResolvedAgainstBaseURL(t *testing.T) {
	loader := MapLoader(map[string]string{
		"http://remote.example/dir/ctx.json": `{"@context":{"name":"http://remote.example/name"}}`,
	})
	p := ld.NewProcessor(ld.WithDocumentLoader(loader))

	res, err := p.Context(value.MustParse(`"ctx.json"`), "http://remote.example/dir/")
	if err != nil {
		t.Fatal(err)
	}

	name, ok := res.Term("name")
	if !ok || name.IRI != "http://remote.example/name" {
		t.Fatalf("got %+v, %v", name, ok)
	}
}
