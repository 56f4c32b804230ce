package jsonld_test

import (
	"testing"

	ld "github.com/blast-hardcheese/json-ld"
	"github.com/blast-hardcheese/json-ld/value"
)

// compactString expands the input document and compacts it against the
// given context.
func compactString(t *testing.T, p *ld.Processor, input, context, documentURL string) *value.Value {
	t.Helper()

	nodes := expandString(t, p, input, documentURL)
	res, err := p.Compact(value.MustParse(context), nodes, documentURL)
	if err != nil {
		t.Fatalf("compaction failed: %s", err)
	}
	return res
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		context string
		output  string
	}{
		{
			name:    "IRI back to term",
			input:   `{"@context":{"name":"http://example.org/name"},"name":"Ann"}`,
			context: `{"name":"http://example.org/name"}`,
			output:  `{"@context":{"name":"http://example.org/name"},"name":"Ann"}`,
		},
		{
			name:    "type coercion back to plain string",
			input:   `{"@id":"http://example.org/a","http://example.org/knows":{"@id":"http://example.org/b"}}`,
			context: `{"knows":{"@id":"http://example.org/knows","@type":"@id"}}`,
			output:  `{"@context":{"knows":{"@id":"http://example.org/knows","@type":"@id"}},"@id":"http://example.org/a","knows":"http://example.org/b"}`,
		},
		{
			name:    "compact IRI via prefix",
			input:   `{"@id":"http://example.org/a","http://example.org/vocab#name":"Ann"}`,
			context: `{"ex":"http://example.org/vocab#"}`,
			output:  `{"@context":{"ex":"http://example.org/vocab#"},"@id":"http://example.org/a","ex:name":"Ann"}`,
		},
		{
			name:    "vocabulary mapping strips the prefix",
			input:   `{"@id":"http://example.org/a","http://vocab.example/name":"Ann"}`,
			context: `{"@vocab":"http://vocab.example/"}`,
			output:  `{"@context":{"@vocab":"http://vocab.example/"},"@id":"http://example.org/a","name":"Ann"}`,
		},
		{
			name:    "list container collapses the list object",
			input:   `{"@context":{"nums":{"@id":"http://example.org/nums","@container":"@list"}},"nums":[1,2]}`,
			context: `{"nums":{"@id":"http://example.org/nums","@container":"@list"}}`,
			output:  `{"@context":{"nums":{"@id":"http://example.org/nums","@container":"@list"}},"nums":[1,2]}`,
		},
		{
			name:    "list without container keeps @list",
			input:   `{"http://example.org/nums":{"@list":[1,2]},"@id":"http://example.org/a"}`,
			context: `{"nums":"http://example.org/nums"}`,
			output:  `{"@context":{"nums":"http://example.org/nums"},"@id":"http://example.org/a","nums":{"@list":[1,2]}}`,
		},
		{
			name:    "language map reconstruction",
			input:   `{"@context":{"label":{"@id":"http://example.org/label","@container":"@language"}},"label":{"en":"Queen","de":"Königin"}}`,
			context: `{"label":{"@id":"http://example.org/label","@container":"@language"}}`,
			output:  `{"@context":{"label":{"@id":"http://example.org/label","@container":"@language"}},"label":{"en":"Queen","de":"Königin"}}`,
		},
		{
			name:    "index map reconstruction",
			input:   `{"@context":{"athletes":{"@id":"http://example.org/athletes","@container":"@index"}},"athletes":{"A":{"@id":"http://example.org/a"},"B":{"@id":"http://example.org/b"}}}`,
			context: `{"athletes":{"@id":"http://example.org/athletes","@container":"@index"}}`,
			output:  `{"@context":{"athletes":{"@id":"http://example.org/athletes","@container":"@index"}},"athletes":{"A":{"@id":"http://example.org/a"},"B":{"@id":"http://example.org/b"}}}`,
		},
		{
			name:    "language-tagged value matching the default language",
			input:   `{"http://example.org/p":{"@value":"hi","@language":"en"},"@id":"http://example.org/a"}`,
			context: `{"@language":"en","p":"http://example.org/p"}`,
			output:  `{"@context":{"@language":"en","p":"http://example.org/p"},"@id":"http://example.org/a","p":"hi"}`,
		},
		{
			name:    "reverse property hoisted onto the node",
			input:   `{"@id":"http://example.org/a","@reverse":{"http://example.org/parent":{"@id":"http://example.org/b"}}}`,
			context: `{"children":{"@reverse":"http://example.org/parent"}}`,
			output:  `{"@context":{"children":{"@reverse":"http://example.org/parent"}},"@id":"http://example.org/a","children":{"@id":"http://example.org/b"}}`,
		},
		{
			name:    "unmatched reverse entries stay under @reverse",
			input:   `{"@id":"http://example.org/a","@reverse":{"http://example.org/parent":{"@id":"http://example.org/b"}}}`,
			context: `{"p":"http://example.org/parent"}`,
			output:  `{"@context":{"p":"http://example.org/parent"},"@id":"http://example.org/a","@reverse":{"p":{"@id":"http://example.org/b"}}}`,
		},
		{
			name:    "named graph",
			input:   `{"@id":"http://example.org/g","@graph":[{"@id":"http://example.org/a","http://example.org/p":"v"}]}`,
			context: `{"p":"http://example.org/p"}`,
			output:  `{"@context":{"p":"http://example.org/p"},"@id":"http://example.org/g","@graph":[{"@id":"http://example.org/a","p":"v"}]}`,
		},
		{
			name:    "type array collapses to a string",
			input:   `{"@id":"http://example.org/a","@type":"http://example.org/T","http://example.org/p":"v"}`,
			context: `{"p":"http://example.org/p"}`,
			output:  `{"@context":{"p":"http://example.org/p"},"@id":"http://example.org/a","@type":"http://example.org/T","p":"v"}`,
		},
		{
			name:    "value object with unmatched language stays an object",
			input:   `{"http://example.org/p":{"@value":"hi","@language":"en"},"@id":"http://example.org/a"}`,
			context: `{"p":"http://example.org/p"}`,
			output:  `{"@context":{"p":"http://example.org/p"},"@id":"http://example.org/a","p":{"@value":"hi","@language":"en"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ld.NewProcessor()

			got := compactString(t, p, tc.input, tc.context, "")
			equalJSON(t, tc.output, got)
		})
	}
}

func TestCompactEmptyDocument(t *testing.T) {
	p := ld.NewProcessor()

	res, err := p.Compact(value.MustParse(`{"p":"http://example.org/p"}`), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	equalJSON(t, `{}`, res)
}

func TestCompactWithoutCompactArrays(t *testing.T) {
	p := ld.NewProcessor(ld.WithCompactArrays(false))

	got := compactString(t, p,
		`{"@context":{"name":"http://example.org/name"},"name":"Ann","@id":"http://example.org/a"}`,
		`{"name":"http://example.org/name"}`, "")
	equalJSON(t,
		`{"@context":{"name":"http://example.org/name"},"@graph":[{"@id":"http://example.org/a","name":["Ann"]}]}`,
		got)
}

func TestCompactToRelativeIRIs(t *testing.T) {
	p := ld.NewProcessor()

	nodes := expandString(t, p,
		`{"@id":"http://example.com/people/ann","http://example.org/p":"v"}`, "")

	res, err := p.Compact(value.MustParse(`{"p":"http://example.org/p"}`),
		nodes, "http://example.com/people/")
	if err != nil {
		t.Fatal(err)
	}
	equalJSON(t, `{"@context":{"p":"http://example.org/p"},"@id":"ann","p":"v"}`, res)
}

func TestCompactKeepsAbsoluteIRIsWhenDisabled(t *testing.T) {
	p := ld.NewProcessor(ld.WithCompactToRelative(false))

	nodes := expandString(t, p,
		`{"@id":"http://example.com/people/ann","http://example.org/p":"v"}`, "")

	res, err := p.Compact(value.MustParse(`{"p":"http://example.org/p"}`),
		nodes, "http://example.com/people/")
	if err != nil {
		t.Fatal(err)
	}
	equalJSON(t,
		`{"@context":{"p":"http://example.org/p"},"@id":"http://example.com/people/ann","p":"v"}`,
		res)
}

func TestCompactContextComesFirst(t *testing.T) {
	p := ld.NewProcessor()

	got := compactString(t, p,
		`{"@context":{"name":"http://example.org/name"},"name":"Ann"}`,
		`{"name":"http://example.org/name"}`, "")

	keys := got.Obj().Keys()
	if len(keys) == 0 || keys[0] != "@context" {
		t.Fatalf("@context is not the first entry: %v", keys)
	}
}

func TestCompactDeterministicOutput(t *testing.T) {
	p := ld.NewProcessor()

	input := `{"@id":"http://example.org/a","http://example.org/b":"x","http://example.org/c":"y","@type":["http://example.org/T","http://example.org/U"]}`
	context := `{"b":"http://example.org/b","c":"http://example.org/c"}`

	first := compactString(t, p, input, context, "").String()
	for range 10 {
		if got := compactString(t, p, input, context, "").String(); got != first {
			t.Fatalf("output differs between runs:\n%s\n%s", first, got)
		}
	}
}
