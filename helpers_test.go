package jsonld_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "github.com/blast-hardcheese/json-ld"
	"github.com/blast-hardcheese/json-ld/value"
)

// MapLoader serves documents from an in-memory map keyed by IRI, so tests
// never touch the network.
func MapLoader(docs map[string]string) ld.DocumentLoaderFunc {
	return func(_ context.Context, iri string) (ld.RemoteDocument, error) {
		doc, ok := docs[iri]
		if !ok {
			return ld.RemoteDocument{}, ld.ErrDocumentNotFound
		}
		return ld.RemoteDocument{
			URL:      iri,
			Document: value.MustParse(doc),
		}, nil
	}
}

func expandString(t *testing.T, p *ld.Processor, input, documentURL string) []ld.Node {
	t.Helper()

	nodes, err := p.Expand(value.MustParse(input), documentURL)
	if err != nil {
		t.Fatalf("expansion failed: %s", err)
	}
	return nodes
}

// nodesJSON reserialises expanded nodes so results can be compared as plain
// JSON values.
func nodesJSON(t *testing.T, nodes []ld.Node) *value.Value {
	t.Helper()

	data, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("marshaling expanded nodes: %s", err)
	}
	v, err := value.Parse(data)
	if err != nil {
		t.Fatalf("reparsing expanded nodes: %s", err)
	}
	return v
}

func equalJSON(t *testing.T, want string, got *value.Value) {
	t.Helper()

	w := value.MustParse(want)
	if !w.Equal(got) {
		t.Errorf("mismatch (-want +got):\n%s", cmp.Diff(w.String(), got.String()))
	}
}
