package jsonld_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ld "github.com/blast-hardcheese/json-ld"
	"github.com/blast-hardcheese/json-ld/value"
)

func TestCachingLoaderDeduplicates(t *testing.T) {
	var calls atomic.Int64
	inner := func(_ context.Context, iri string) (ld.RemoteDocument, error) {
		calls.Add(1)
		return ld.RemoteDocument{
			URL:      iri,
			Document: value.MustParse(`{"@context":{}}`),
		}, nil
	}

	loader := ld.NewCachingLoader(inner)

	first, err := loader(context.Background(), "http://remote.example/ctx.json")
	require.NoError(t, err)
	second, err := loader(context.Background(), "http://remote.example/ctx.json")
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, first.URL, second.URL)
}

func TestCachingLoaderKeysOnIRI(t *testing.T) {
	var calls atomic.Int64
	inner := func(_ context.Context, iri string) (ld.RemoteDocument, error) {
		calls.Add(1)
		return ld.RemoteDocument{URL: iri, Document: value.MustParse(`{}`)}, nil
	}

	loader := ld.NewCachingLoader(inner)

	_, err := loader(context.Background(), "http://remote.example/a.json")
	require.NoError(t, err)
	_, err = loader(context.Background(), "http://remote.example/b.json")
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestCachingLoaderMemoisesFailures(t *testing.T) {
	var calls atomic.Int64
	inner := func(_ context.Context, _ string) (ld.RemoteDocument, error) {
		calls.Add(1)
		return ld.RemoteDocument{}, ld.ErrDocumentNotFound
	}

	loader := ld.NewCachingLoader(inner)

	_, err := loader(context.Background(), "http://remote.example/gone.json")
	require.ErrorIs(t, err, ld.ErrDocumentNotFound)
	_, err = loader(context.Background(), "http://remote.example/gone.json")
	require.ErrorIs(t, err, ld.ErrDocumentNotFound)

	assert.Equal(t, int64(1), calls.Load())
}

func TestCachingLoaderSharesInflightFetch(t *testing.T) {
	var calls atomic.Int64
	inner := func(_ context.Context, iri string) (ld.RemoteDocument, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return ld.RemoteDocument{URL: iri, Document: value.MustParse(`{}`)}, nil
	}

	loader := ld.NewCachingLoader(inner)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = loader(context.Background(), "http://remote.example/ctx.json")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestExpandUsesCachingLoader(t *testing.T) {
	var calls atomic.Int64
	docs := map[string]string{
		"http://remote.example/ctx.json": `{"@context":{"name":"http://example.org/name"}}`,
	}
	counting := func(ctx context.Context, iri string) (ld.RemoteDocument, error) {
		calls.Add(1)
		return MapLoader(docs)(ctx, iri)
	}

	p := ld.NewProcessor(ld.WithDocumentLoader(ld.NewCachingLoader(counting)))

	input := `[
		{"@context":"http://remote.example/ctx.json","name":"Ann"},
		{"@context":"http://remote.example/ctx.json","name":"Bob"}
	]`
	nodes := expandString(t, p, input, "")

	require.Len(t, nodes, 2)
	assert.Equal(t, int64(1), calls.Load())
}
