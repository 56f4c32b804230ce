package jsonld_test

import (
	"errors"
	"strings"
	"testing"

	ld "github.com/blast-hardcheese/json-ld"
	"github.com/blast-hardcheese/json-ld/value"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		url     string
		ordered bool
		output  string
		err     error
	}{
		{
			name:   "term to IRI",
			input:  `{"@context":{"name":"http://example.org/name"},"name":"Ann"}`,
			output: `[{"http://example.org/name":[{"@value":"Ann"}]}]`,
		},
		{
			name:   "type coercion to @id",
			input:  `{"@context":{"knows":{"@id":"http://xmlns.com/foaf/0.1/knows","@type":"@id"}},"@id":"http://example.org/a","knows":"http://example.org/b"}`,
			output: `[{"@id":"http://example.org/a","http://xmlns.com/foaf/0.1/knows":[{"@id":"http://example.org/b"}]}]`,
		},
		{
			name:   "drop unmapped properties",
			input:  `{"name":"Ann"}`,
			output: `[]`,
		},
		{
			name:   "drop node left with only @id",
			input:  `{"@id":"http://example.org/a","name":"Ann"}`,
			output: `[]`,
		},
		{
			name:   "keyword aliases",
			input:  `{"@context":{"id":"@id","type":"@type"},"id":"http://example.org/a","type":"http://example.org/Type","http://example.org/p":"v"}`,
			output: `[{"@id":"http://example.org/a","@type":["http://example.org/Type"],"http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "relative @id resolves against the document URL",
			input:  `{"@id":"ann","http://example.org/p":"v"}`,
			url:    "http://example.com/people/",
			output: `[{"@id":"http://example.com/people/ann","http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "@base overrides the document URL",
			input:  `{"@context":{"@base":"http://other.example/"},"@id":"ann","http://example.org/p":"v"}`,
			url:    "http://example.com/people/",
			output: `[{"@id":"http://other.example/ann","http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "@vocab applies to properties and types",
			input:  `{"@context":{"@vocab":"http://vocab.example/"},"@type":"Person","term":"v"}`,
			output: `[{"@type":["http://vocab.example/Person"],"http://vocab.example/term":[{"@value":"v"}]}]`,
		},
		{
			name:   "compact IRI",
			input:  `{"@context":{"ex":"http://example.org/"},"ex:name":"Ann","@id":"http://example.org/a"}`,
			output: `[{"@id":"http://example.org/a","http://example.org/name":[{"@value":"Ann"}]}]`,
		},
		{
			name:   "null term drops the property",
			input:  `{"@context":{"skip":null,"keep":"http://example.org/keep"},"skip":"x","keep":"y"}`,
			output: `[{"http://example.org/keep":[{"@value":"y"}]}]`,
		},
		{
			name:   "default language",
			input:  `{"@context":{"@language":"en"},"http://example.org/p":"hi"}`,
			output: `[{"http://example.org/p":[{"@value":"hi","@language":"en"}]}]`,
		},
		{
			name:   "term clears the default language",
			input:  `{"@context":{"@language":"en","p":{"@id":"http://example.org/p","@language":null}},"p":"hi"}`,
			output: `[{"http://example.org/p":[{"@value":"hi"}]}]`,
		},
		{
			name:   "base direction",
			input:  `{"@context":{"@direction":"rtl"},"http://example.org/p":"x"}`,
			output: `[{"http://example.org/p":[{"@value":"x","@direction":"rtl"}]}]`,
		},
		{
			name:    "language map",
			input:   `{"@context":{"label":{"@id":"http://example.org/label","@container":"@language"}},"label":{"en":"Queen","de":"Königin"}}`,
			ordered: true,
			output:  `[{"http://example.org/label":[{"@value":"Königin","@language":"de"},{"@value":"Queen","@language":"en"}]}]`,
		},
		{
			name:    "index map",
			input:   `{"@context":{"athletes":{"@id":"http://example.org/athletes","@container":"@index"}},"athletes":{"A":{"@id":"http://example.org/a","http://example.org/p":"v"},"B":"name"}}`,
			ordered: true,
			output:  `[{"http://example.org/athletes":[{"@id":"http://example.org/a","@index":"A","http://example.org/p":[{"@value":"v"}]},{"@value":"name","@index":"B"}]}]`,
		},
		{
			name:   "index map with @none",
			input:  `{"@context":{"p":{"@id":"http://example.org/p","@container":"@index"}},"p":{"@none":"x"}}`,
			output: `[{"http://example.org/p":[{"@value":"x"}]}]`,
		},
		{
			name:   "id map",
			input:  `{"@context":{"p":{"@id":"http://example.org/p","@container":"@id"}},"p":{"http://example.org/a":{"http://example.org/v":"x"}}}`,
			output: `[{"http://example.org/p":[{"@id":"http://example.org/a","http://example.org/v":[{"@value":"x"}]}]}]`,
		},
		{
			name:   "type map",
			input:  `{"@context":{"p":{"@id":"http://example.org/p","@container":"@type"}},"p":{"http://example.org/T":{"http://example.org/v":"x"}}}`,
			output: `[{"http://example.org/p":[{"@type":["http://example.org/T"],"http://example.org/v":[{"@value":"x"}]}]}]`,
		},
		{
			name:   "graph container",
			input:  `{"@context":{"input":{"@id":"http://example.org/input","@container":"@graph"}},"input":{"http://example.org/v":"x"}}`,
			output: `[{"http://example.org/input":[{"@graph":[{"http://example.org/v":[{"@value":"x"}]}]}]}]`,
		},
		{
			name:   "list coercion",
			input:  `{"@context":{"nums":{"@id":"http://example.org/nums","@container":"@list"}},"nums":[1,2]}`,
			output: `[{"http://example.org/nums":[{"@list":[{"@value":1},{"@value":2}]}]}]`,
		},
		{
			name:   "@set collapses to its members",
			input:  `{"http://example.org/p":{"@set":["a","b"]}}`,
			output: `[{"http://example.org/p":[{"@value":"a"},{"@value":"b"}]}]`,
		},
		{
			name:   "reverse term",
			input:  `{"@context":{"parent":{"@reverse":"http://example.org/child"}},"@id":"http://example.org/a","parent":{"@id":"http://example.org/b"}}`,
			output: `[{"@id":"http://example.org/a","@reverse":{"http://example.org/child":[{"@id":"http://example.org/b"}]}}]`,
		},
		{
			name:   "@reverse map",
			input:  `{"@id":"http://example.org/a","@reverse":{"http://example.org/p":{"@id":"http://example.org/b"}}}`,
			output: `[{"@id":"http://example.org/a","@reverse":{"http://example.org/p":[{"@id":"http://example.org/b"}]}}]`,
		},
		{
			name:   "@nest",
			input:  `{"@context":{"@vocab":"http://example.org/","meta":"@nest"},"@id":"http://example.org/a","meta":{"p":"v"}}`,
			output: `[{"@id":"http://example.org/a","http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "top-level @graph unwraps",
			input:  `{"@context":{"@vocab":"http://example.org/"},"@graph":[{"p":"v"}]}`,
			output: `[{"http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "named graph is kept",
			input:  `{"@id":"http://example.org/g","@graph":[{"@id":"http://example.org/a","http://example.org/p":"v"}]}`,
			output: `[{"@id":"http://example.org/g","@graph":[{"@id":"http://example.org/a","http://example.org/p":[{"@value":"v"}]}]}]`,
		},
		{
			name:   "@included",
			input:  `{"@context":{"@vocab":"http://example.org/"},"@id":"http://example.org/a","p":"v","@included":[{"@id":"http://example.org/b","p":"w"}]}`,
			output: `[{"@id":"http://example.org/a","@included":[{"@id":"http://example.org/b","http://example.org/p":[{"@value":"w"}]}],"http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "@json literal",
			input:  `{"@context":{"e":{"@id":"http://example.org/e","@type":"@json"}},"e":{"b":true,"a":[1]}}`,
			output: `[{"http://example.org/e":[{"@value":{"b":true,"a":[1]},"@type":"@json"}]}]`,
		},
		{
			name:   "null @value removes the entry",
			input:  `{"@id":"http://example.org/a","@type":"http://example.org/T","http://example.org/p":{"@value":null}}`,
			output: `[{"@id":"http://example.org/a","@type":["http://example.org/T"]}]`,
		},
		{
			name:   "free-floating scalars disappear",
			input:  `["x",true,{"@id":"http://example.org/a","http://example.org/p":"v"}]`,
			output: `[{"@id":"http://example.org/a","http://example.org/p":[{"@value":"v"}]}]`,
		},
		{
			name:   "property-scoped context",
			input:  `{"@context":{"p":{"@id":"http://example.org/p","@context":{"q":"http://example.org/q"}}},"p":{"q":"v"}}`,
			output: `[{"http://example.org/p":[{"http://example.org/q":[{"@value":"v"}]}]}]`,
		},
		{
			name:   "type-scoped context",
			input:  `{"@context":{"T":{"@id":"http://example.org/T","@context":{"q":"http://example.org/q"}}},"@type":"T","q":"v"}`,
			output: `[{"@type":["http://example.org/T"],"http://example.org/q":[{"@value":"v"}]}]`,
		},
		{
			name:   "type-scoped context does not propagate",
			input:  `{"@context":{"@vocab":"http://v.example/","T":{"@id":"http://example.org/T","@context":{"name":"http://example.org/name"}}},"@type":"T","name":"outer","rel":{"name":"inner"}}`,
			output: `[{"@type":["http://example.org/T"],"http://example.org/name":[{"@value":"outer"}],"http://v.example/rel":[{"http://v.example/name":[{"@value":"inner"}]}]}]`,
		},
		{
			name:  "@value with a property is invalid",
			input: `{"http://example.org/p":{"@value":"v","http://example.org/x":"y"}}`,
			err:   ld.ErrInvalidValueObject,
		},
		{
			name:  "@value with a non-scalar is invalid",
			input: `{"http://example.org/p":{"@value":{"a":1}}}`,
			err:   ld.ErrInvalidValueObjectValue,
		},
		{
			name:  "language-tagged non-string is invalid",
			input: `{"http://example.org/p":{"@value":5,"@language":"en"}}`,
			err:   ld.ErrInvalidLanguageTaggedValue,
		},
		{
			name:  "colliding @id entries",
			input: `{"@context":{"id":"@id"},"@id":"http://example.org/a","id":"http://example.org/b","http://example.org/p":"v"}`,
			err:   ld.ErrCollidingKeywords,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ld.NewProcessor(ld.WithOrdered(tc.ordered))

			nodes, err := p.Expand(value.MustParse(tc.input), tc.url)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("got error %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expansion failed: %s", err)
			}

			equalJSON(t, tc.output, nodesJSON(t, nodes))
		})
	}
}

func TestExpandStrictPolicy(t *testing.T) {
	p := ld.NewProcessor(ld.WithExpansionPolicy(ld.PolicyStrict))

	_, err := p.Expand(value.MustParse(`{"name":"Ann"}`), "")
	if !errors.Is(err, ld.ErrInvalidProperty) {
		t.Fatalf("got %v, want %v", err, ld.ErrInvalidProperty)
	}
}

func TestExpandBaseIRIOption(t *testing.T) {
	p := ld.NewProcessor(ld.WithBaseIRI("http://base.example/dir/"))

	nodes := expandString(t, p, `{"@id":"doc","http://example.org/p":"v"}`, "")
	equalJSON(t,
		`[{"@id":"http://base.example/dir/doc","http://example.org/p":[{"@value":"v"}]}]`,
		nodesJSON(t, nodes))
}

func TestExpandContextOption(t *testing.T) {
	p := ld.NewProcessor(ld.WithExpandContext(
		value.MustParse(`{"name":"http://example.org/name"}`)))

	nodes := expandString(t, p, `{"name":"Ann"}`, "")
	equalJSON(t,
		`[{"http://example.org/name":[{"@value":"Ann"}]}]`,
		nodesJSON(t, nodes))
}

func TestExpandListOfListsLD10(t *testing.T) {
	p := ld.NewProcessor(ld.With10Processing(true))

	_, err := p.Expand(value.MustParse(
		`{"@context":{"l":{"@id":"http://example.org/l","@container":"@list"}},"l":[{"@list":[1]}]}`), "")
	if !errors.Is(err, ld.ErrListOfLists) {
		t.Fatalf("got %v, want %v", err, ld.ErrListOfLists)
	}
}

func TestExpandVersionLD10(t *testing.T) {
	p := ld.NewProcessor(ld.With10Processing(true))

	_, err := p.Expand(value.MustParse(
		`{"@context":{"@version":1.1,"name":"http://example.org/name"},"name":"Ann"}`), "")
	if !errors.Is(err, ld.ErrProcessingMode) {
		t.Fatalf("got %v, want %v", err, ld.ErrProcessingMode)
	}
}

func TestExpandRecursionLimit(t *testing.T) {
	p := ld.NewProcessor(ld.WithMaxDepth(5))

	deep := strings.Repeat(`{"http://example.org/p":`, 10) +
		`"v"` + strings.Repeat("}", 10)

	_, err := p.Expand(value.MustParse(deep), "")
	if !errors.Is(err, ld.ErrRecursionLimitExceeded) {
		t.Fatalf("got %v, want %v", err, ld.ErrRecursionLimitExceeded)
	}
}

func TestExpandRelabelBlankNodes(t *testing.T) {
	p := ld.NewProcessor(ld.WithRelabelBlankNodes(true))

	nodes := expandString(t, p,
		`{"@id":"_:author","http://example.org/p":{"@id":"_:author"}}`, "")
	equalJSON(t,
		`[{"@id":"_:b0","http://example.org/p":[{"@id":"_:b0"}]}]`,
		nodesJSON(t, nodes))
}

func TestExpandKeepsBlankNodeLabelsByDefault(t *testing.T) {
	p := ld.NewProcessor()

	nodes := expandString(t, p,
		`{"@id":"_:author","http://example.org/p":"v"}`, "")
	equalJSON(t,
		`[{"@id":"_:author","http://example.org/p":[{"@value":"v"}]}]`,
		nodesJSON(t, nodes))
}

func TestExpandRemoteContext(t *testing.T) {
	loader := MapLoader(map[string]string{
		"http://remote.example/ctx": `{"@context":{"name":"http://example.org/name"}}`,
	})
	p := ld.NewProcessor(ld.WithDocumentLoader(loader))

	nodes := expandString(t, p,
		`{"@context":"http://remote.example/ctx","name":"Ann"}`, "")
	equalJSON(t,
		`[{"http://example.org/name":[{"@value":"Ann"}]}]`,
		nodesJSON(t, nodes))
}

func TestExpandRemoteContextWithoutLoader(t *testing.T) {
	p := ld.NewProcessor()

	_, err := p.Expand(value.MustParse(
		`{"@context":"http://remote.example/ctx","http://example.org/p":"v"}`), "")
	if !errors.Is(err, ld.ErrLoadingRemoteContext) {
		t.Fatalf("got %v, want %v", err, ld.ErrLoadingRemoteContext)
	}
}

func TestExpandCyclicRemoteContext(t *testing.T) {
	loader := MapLoader(map[string]string{
		"http://remote.example/a": `{"@context":["http://remote.example/b"]}`,
		"http://remote.example/b": `{"@context":["http://remote.example/a"]}`,
	})
	p := ld.NewProcessor(ld.WithDocumentLoader(loader))

	_, err := p.Expand(value.MustParse(
		`{"@context":"http://remote.example/a","http://example.org/p":"v"}`), "")
	if !errors.Is(err, ld.ErrRecursiveContextInclusion) {
		t.Fatalf("got %v, want %v", err, ld.ErrRecursiveContextInclusion)
	}
}

func TestExpandNumberLiteralsSurvive(t *testing.T) {
	p := ld.NewProcessor()

	nodes := expandString(t, p,
		`{"http://example.org/n":[1.10,123456789012345678901234567890,1e3]}`, "")

	got := nodesJSON(t, nodes).String()
	for _, lit := range []string{"1.10", "123456789012345678901234567890", "1e3"} {
		if !strings.Contains(got, lit) {
			t.Errorf("literal %s not preserved in %s", lit, got)
		}
	}
}
